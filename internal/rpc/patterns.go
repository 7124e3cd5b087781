// Package rpc is the typed request/response bridge between the gateway and
// the identity service. Each Pattern maps to exactly one unary gRPC method
// whose payloads are JSON-encoded models.
package rpc

import "github.com/dmitrijs2005/gatekeeper/internal/models"

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "gatekeeper.identity.v1.Identity"

// Pattern names an identity operation reachable over the bridge.
type Pattern string

const (
	PatternUserRegister Pattern = "USER_REGISTER"
	PatternUserGetAll   Pattern = "USER_GET_ALL"
	PatternUserLogin    Pattern = "USER_LOGIN"
)

var methodNames = map[Pattern]string{
	PatternUserRegister: "UserRegister",
	PatternUserGetAll:   "UserGetAll",
	PatternUserLogin:    "UserLogin",
}

// Patterns lists every supported pattern.
func Patterns() []Pattern {
	return []Pattern{PatternUserRegister, PatternUserGetAll, PatternUserLogin}
}

// Method returns the gRPC method name, or "" for an unknown pattern.
func (p Pattern) Method() string {
	return methodNames[p]
}

// FullMethod returns the "/service/method" path used on the wire.
func (p Pattern) FullMethod() string {
	return "/" + ServiceName + "/" + p.Method()
}

// Empty is the request payload of USER_GET_ALL.
type Empty struct{}

// UserList is the response payload of USER_GET_ALL.
type UserList struct {
	Users []models.PublicUser `json:"users"`
}
