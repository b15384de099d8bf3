package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrSessionActive      ErrCode = "SESSION_ALREADY_ACTIVE"
	ErrSessionInvalidated ErrCode = "SESSION_INVALIDATED"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrTokenExpired       ErrCode = "TOKEN_EXPIRED"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden              ErrCode = "FORBIDDEN"
	ErrStudentAccessOnly      ErrCode = "STUDENT_ACCESS_ONLY"
	ErrAdminAccessOnly        ErrCode = "ADMIN_ACCESS_ONLY"
	ErrUniversityAccessDenied ErrCode = "UNIVERSITY_ACCESS_DENIED"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Simulator ─────────────────────────────────────────────────────
	ErrBankUnavailable   ErrCode = "QUESTION_BANK_UNAVAILABLE"
	ErrNoActiveExam      ErrCode = "NO_ACTIVE_EXAM"
	ErrExamNotInProgress ErrCode = "EXAM_NOT_IN_PROGRESS"
	ErrExamNotFinished   ErrCode = "EXAM_NOT_FINISHED"
	ErrSubjectRequired   ErrCode = "SUBJECT_REQUIRED"
	ErrInvalidOption     ErrCode = "INVALID_OPTION"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
// Messages are in Spanish — the academy's audience is Ecuadorian aspirants.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Usuario o contraseña incorrectos."
	case ErrSessionActive:
		return "Ya tienes una sesión activa en otro dispositivo."
	case ErrSessionInvalidated:
		return "Tu sesión ha expirado. Inicia sesión nuevamente."
	case ErrTokenRequired:
		return "Se requiere un token de autenticación."
	case ErrTokenInvalid:
		return "Token de autenticación inválido."
	case ErrTokenExpired:
		return "El token de autenticación ha expirado."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "No tienes permiso para acceder a este recurso."
	case ErrStudentAccessOnly:
		return "Este recurso es solo para estudiantes."
	case ErrAdminAccessOnly:
		return "Este recurso es solo para administradores."
	case ErrUniversityAccessDenied:
		return "No tienes acceso a esta universidad."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validación fallida. Revisa los datos ingresados."
	case ErrInvalidID:
		return "Formato de ID inválido."
	case ErrInvalidPayload:
		return "El cuerpo de la petición es inválido."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Recurso no encontrado."
	case ErrConflict:
		return "El recurso ya existe."

	// ─── Simulator ─────────────────────────────────────────────────────
	case ErrBankUnavailable:
		return "Error al cargar el examen. Intenta nuevamente."
	case ErrNoActiveExam:
		return "No tienes un examen en curso."
	case ErrExamNotInProgress:
		return "El examen no está en curso."
	case ErrExamNotFinished:
		return "El examen aún no ha finalizado."
	case ErrSubjectRequired:
		return "Debes seleccionar una materia antes de comenzar."
	case ErrInvalidOption:
		return "La opción seleccionada no es válida para esta pregunta."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Demasiadas peticiones. Intenta de nuevo más tarde."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "Ocurrió un error interno del servidor."
	default:
		return "Ocurrió un error inesperado."
	}
}
