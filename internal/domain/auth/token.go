package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	RoleAdmin    = "admin"
	RoleEmployer = "employer"
	RoleWorker   = "worker"
)

// Claims identify the caller. Employers carry CompanyID, workers carry WorkerID.
type Claims struct {
	SubjectID string `json:"sub_id"`
	Role      string `json:"role"`
	CompanyID string `json:"cid,omitempty"`
	WorkerID  string `json:"wid,omitempty"`
	jwt.RegisteredClaims
}

// Actor is the authenticated caller as seen by domain services.
type Actor struct {
	ID        string
	Role      string
	CompanyID string
	WorkerID  string
}

func (a Actor) IsAdmin() bool    { return a.Role == RoleAdmin }
func (a Actor) IsEmployer() bool { return a.Role == RoleEmployer }
func (a Actor) IsWorker() bool   { return a.Role == RoleWorker }

// CanActForCompany reports whether the actor may read or write records of companyID.
func (a Actor) CanActForCompany(companyID string) bool {
	return a.IsAdmin() || (a.IsEmployer() && a.CompanyID == companyID)
}

// CanActForWorker reports whether the actor may read or write a worker's own records.
func (a Actor) CanActForWorker(workerID string) bool {
	return a.IsAdmin() || (a.IsWorker() && a.WorkerID == workerID)
}

func (c Claims) Actor() Actor {
	return Actor{ID: c.SubjectID, Role: c.Role, CompanyID: c.CompanyID, WorkerID: c.WorkerID}
}

func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleEmployer, RoleWorker:
		return true
	}
	return false
}

func GenerateToken(secret string, claims Claims, ttl time.Duration) (string, error) {
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ParseToken(secret, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if !ValidRole(claims.Role) {
		return nil, errors.New("unknown role")
	}
	return claims, nil
}
