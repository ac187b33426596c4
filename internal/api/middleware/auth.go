package middleware

import (
	"net/http"
	"strings"

	"github.com/algo-traders-club/aster-operator/pkg/crypto"
)

// Auth - middleware аутентификации операторского API
//
// Проверяет заголовок Authorization: Bearer <token> против bcrypt
// хэша из конфигурации. Токен в открытом виде нигде не хранится.
//
// Пустой хэш отключает проверку: бот запущен локально и API
// не выставлен наружу.
func Auth(tokenHash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tokenHash == "" {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				w.Header().Set("WWW-Authenticate", `Bearer realm="operator API"`)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if !crypto.CheckTokenMatch(token, tokenHash) {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
