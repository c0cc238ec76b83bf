package health

type Input struct{}

type Output struct {
	Body Response
}

// Response - ответ проверки доступности. Клиент считает сервер доступным только при status=OK.
type Response struct {
	Status     string `json:"status" example:"OK" doc:"Health status of the service"`
	ServerTime int64  `json:"serverTime" doc:"Server clock in unix milliseconds"`
}
