package models

const (
	ParseModeMarkdown = "Markdown"
	ParseModeHTML     = "HTML"
)

const (
	// DefaultSessionTTL время жизни черновика бронирования в секундах
	DefaultSessionTTL = 24 * 60 * 60

	// DefaultTimezone часовой пояс, в котором считаются календарные дни
	DefaultTimezone = "America/Montreal"

	// WorkerQueueSize размер очереди воркера уведомлений
	WorkerQueueSize = 1000

	// SubmitRateLimit количество отправок формы в окне
	SubmitRateLimit = 5

	// SubmitRateWindow окно ограничения частоты отправок
	SubmitRateWindow = 60 * 60 // 1 час в секундах

	// DefaultExportRangeDays период выгрузки обращений по умолчанию
	DefaultExportRangeDays = 30
)
