package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/algo-traders-club/aster-operator/pkg/utils"
)

// Recovery - middleware для восстановления после паники в handlers
//
// Перехватывает panic в HTTP handlers и предотвращает падение всего
// сервера: логирует ошибку со stack trace и возвращает клиенту 500.
func Recovery(logger *utils.Logger) func(http.Handler) http.Handler {
	log := logger.WithComponent("http")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.Error("panic in handler",
						utils.String("path", r.URL.Path),
						utils.String("panic", fmt.Sprintf("%v", err)),
						utils.String("stack", string(debug.Stack())))

					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
