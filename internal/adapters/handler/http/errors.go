package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/metime/internal/core/domain"
)

var errorStatuses = []struct {
	err    error
	status int
}{
	{domain.ErrHabitNotFound, http.StatusNotFound},
	{domain.ErrNoHabits, http.StatusNotFound},
	{domain.ErrHabitExists, http.StatusConflict},
	{domain.ErrAlreadyCompleted, http.StatusConflict},
	{domain.ErrInvalidTimestamp, http.StatusUnprocessableEntity},
	{domain.ErrHabitNameEmpty, http.StatusBadRequest},
	{domain.ErrHabitNameTooLong, http.StatusBadRequest},
	{domain.ErrHabitDescTooLong, http.StatusBadRequest},
	{domain.ErrInvalidPeriodicity, http.StatusBadRequest},
	{domain.ErrInvalidWindow, http.StatusBadRequest},
}

func statusFor(err error) int {
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	return http.StatusInternalServerError
}

// respondError writes the domain error message for known errors and hides the
// rest behind a generic 500.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
