package common

// AuthorizationHeader carries "Bearer <token>" on authenticated requests.
const AuthorizationHeader = "Authorization"

// BearerPrefix is the scheme prefix expected in AuthorizationHeader.
const BearerPrefix = "Bearer "
