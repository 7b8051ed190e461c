package response

// ErrCode is a typed error code enum for consistent proxy error identification.
type ErrCode string

const (
	// ─── Session ───────────────────────────────────────────────────────
	ErrSessionExpired ErrCode = "SESSION_EXPIRED"
	ErrNoSession      ErrCode = "NO_SESSION"

	// ─── Proxy ─────────────────────────────────────────────────────────
	ErrUpstreamUnreachable ErrCode = "UPSTREAM_UNREACHABLE"
	ErrRateLimitExceeded   ErrCode = "RATE_LIMIT_EXCEEDED"
	ErrInternal            ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	case ErrSessionExpired:
		return "Sessão expirada. Faça login novamente para continuar."
	case ErrNoSession:
		return "Nenhuma sessão ativa. Use `portalctl login` primeiro."
	case ErrUpstreamUnreachable:
		return "Não foi possível alcançar o backend do portal."
	case ErrRateLimitExceeded:
		return "Muitas requisições. Tente novamente em instantes."
	case ErrInternal:
		return "Erro interno do proxy."
	default:
		return "Ocorreu um erro inesperado."
	}
}
