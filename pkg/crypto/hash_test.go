package crypto

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

// TestHashToken проверяет базовое хеширование токена
func TestHashToken(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{"simple token", "operator-token-123"},
		{"complex token", "T0k3n!#$%^&*()"},
		{"unicode token", "токен123"},
		{"long token", strings.Repeat("a", 70)}, // близко к лимиту 72
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := HashToken(tt.token)
			if err != nil {
				t.Fatalf("HashToken failed: %v", err)
			}

			// Проверяем что хеш не пустой
			if hash == "" {
				t.Error("Hash should not be empty")
			}

			// Проверяем что хеш начинается с bcrypt prefix
			if !strings.HasPrefix(hash, "$2a$") && !strings.HasPrefix(hash, "$2b$") {
				t.Errorf("Hash should start with bcrypt prefix, got: %s", hash[:10])
			}

			// Проверяем что хеш отличается от токена
			if hash == tt.token {
				t.Error("Hash should not equal token")
			}
		})
	}
}

// TestHashTokenEmptyError проверяет ошибку при пустом токене
func TestHashTokenEmptyError(t *testing.T) {
	_, err := HashToken("")
	if err != ErrEmptyToken {
		t.Errorf("HashToken empty: got error %v, want %v", err, ErrEmptyToken)
	}
}

// TestHashTokenTooLong проверяет ошибку при слишком длинном токене
func TestHashTokenTooLong(t *testing.T) {
	longToken := strings.Repeat("a", 73) // больше 72 байт
	_, err := HashToken(longToken)
	if err != ErrTokenTooLong {
		t.Errorf("HashToken too long: got error %v, want %v", err, ErrTokenTooLong)
	}
}

// TestHashTokenDifferentHashes проверяет что каждый хеш уникален (разный salt)
func TestHashTokenDifferentHashes(t *testing.T) {
	token := "sametoken"

	hash1, _ := HashToken(token)
	hash2, _ := HashToken(token)

	if hash1 == hash2 {
		t.Error("Two hashes of the same token should be different (different salts)")
	}
}

// TestHashTokenWithCost проверяет хеширование с разной стоимостью
func TestHashTokenWithCost(t *testing.T) {
	token := "testtoken0001"

	tests := []struct {
		name string
		cost int
		want int
	}{
		{"min cost", bcrypt.MinCost, bcrypt.MinCost},
		{"below min clamps", bcrypt.MinCost - 2, bcrypt.MinCost},
		{"custom cost", 6, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := HashTokenWithCost(token, tt.cost)
			if err != nil {
				t.Fatalf("HashTokenWithCost failed: %v", err)
			}

			cost, err := GetHashCost(hash)
			if err != nil {
				t.Fatalf("GetHashCost failed: %v", err)
			}
			if cost != tt.want {
				t.Errorf("hash cost = %d, want %d", cost, tt.want)
			}
		})
	}
}

// TestVerifyToken проверяет верификацию токена
func TestVerifyToken(t *testing.T) {
	token := "correct-token-99"
	hash, err := HashTokenWithCost(token, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashTokenWithCost failed: %v", err)
	}

	// Правильный токен
	if err := VerifyToken(token, hash); err != nil {
		t.Errorf("VerifyToken with correct token failed: %v", err)
	}

	// Неправильный токен
	if err := VerifyToken("wrong-token", hash); err != ErrTokenMismatch {
		t.Errorf("VerifyToken wrong token: got %v, want %v", err, ErrTokenMismatch)
	}

	// Пустой токен
	if err := VerifyToken("", hash); err != ErrEmptyToken {
		t.Errorf("VerifyToken empty token: got %v, want %v", err, ErrEmptyToken)
	}

	// Пустой хеш
	if err := VerifyToken(token, ""); err != ErrInvalidHash {
		t.Errorf("VerifyToken empty hash: got %v, want %v", err, ErrInvalidHash)
	}

	// Битый хеш
	if err := VerifyToken(token, "not-a-bcrypt-hash"); err != ErrInvalidHash {
		t.Errorf("VerifyToken invalid hash: got %v, want %v", err, ErrInvalidHash)
	}
}

// TestCheckTokenMatch проверяет bool-обёртку
func TestCheckTokenMatch(t *testing.T) {
	token := "match-me-please1"
	hash, _ := HashTokenWithCost(token, bcrypt.MinCost)

	if !CheckTokenMatch(token, hash) {
		t.Error("CheckTokenMatch should return true for correct token")
	}
	if CheckTokenMatch("nope", hash) {
		t.Error("CheckTokenMatch should return false for wrong token")
	}
}

// TestGetHashCost проверяет извлечение cost из хеша
func TestGetHashCost(t *testing.T) {
	if _, err := GetHashCost(""); err != ErrInvalidHash {
		t.Errorf("GetHashCost empty: got %v, want %v", err, ErrInvalidHash)
	}
	if _, err := GetHashCost("garbage"); err != ErrInvalidHash {
		t.Errorf("GetHashCost garbage: got %v, want %v", err, ErrInvalidHash)
	}
}
