package autoscale

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// QueueStats exposes broker-side depth and consumer counts for a queue. The
// AMQP client satisfies this.
type QueueStats interface {
	Stats(queue string) (messages, consumers int, err error)
}

type activateResponse struct {
	Message string `json:"message"`
	Data    Result `json:"data"`
}

// Handler serves the activation endpoint: reads queue depth and running
// consumers, then starts worker job tasks per the scaling rules. In dev the
// endpoint is a no-op so local queues never spawn cloud tasks.
func Handler(stats QueueStats, queueName string, scaler *Scaler, dev bool) echo.HandlerFunc {
	return func(c echo.Context) error {
		if dev {
			return c.JSON(http.StatusOK, activateResponse{
				Message: "Cloud Run Job activated successfully",
			})
		}

		messages, consumers, err := stats.Stats(queueName)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}

		result, err := scaler.Scale(c.Request().Context(), messages, consumers)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}

		return c.JSON(http.StatusOK, activateResponse{
			Message: "Cloud Run Job activated successfully",
			Data:    result,
		})
	}
}
