package authcore

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/commercekit/authcore/webhook"
)

// Role is the authorization level carried by a session. Roles are assigned by
// the user store; this core only consumes them when minting and resolving
// tokens.
type Role string

const (
	// RoleUser is the default role assigned to a newly created account.
	RoleUser Role = "USER"
	// RoleAdmin grants access to routes guarded by [middleware.AdminGuard].
	RoleAdmin Role = "ADMIN"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Session is the normalized outcome of identity resolution: who the request
// is acting as and with what role. It carries no storage handle; both proof
// mechanisms reduce to this same pair.
type Session struct {
	Identity string
	Role     Role
}

// UserRecord is the account view this core needs from the user store:
// a stable ID, the normalized email, and the current role.
type UserRecord struct {
	UserID string
	Email  string
	Role   Role
}

// UserProvider is the persisted-identity collaborator. FindOrCreate returns
// the record for the normalized email, creating it with [RoleUser] when no
// account exists yet.
type UserProvider interface {
	FindOrCreate(ctx context.Context, email string) (UserRecord, error)
}

// MemoryUserProvider is an in-process [UserProvider] for tests and demos.
// Records live in a map keyed by normalized email and IDs are random UUIDs.
type MemoryUserProvider struct {
	mu    sync.Mutex
	users map[string]UserRecord
}

// NewMemoryUserProvider creates an empty in-process user store.
func NewMemoryUserProvider() *MemoryUserProvider {
	return &MemoryUserProvider{users: make(map[string]UserRecord)}
}

// FindOrCreate implements [UserProvider].
func (p *MemoryUserProvider) FindOrCreate(_ context.Context, email string) (UserRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if user, ok := p.users[email]; ok {
		return user, nil
	}

	user := UserRecord{
		UserID: uuid.NewString(),
		Email:  email,
		Role:   RoleUser,
	}
	p.users[email] = user
	return user, nil
}

// SetRole overrides the stored role for an email. Intended for seeding admin
// accounts in tests and demos; role promotion in production belongs to the
// caller's own administrative flow.
func (p *MemoryUserProvider) SetRole(email string, role Role) {
	p.mu.Lock()
	defer p.mu.Unlock()

	user, ok := p.users[normalizeIdentity(email)]
	if !ok {
		user = UserRecord{UserID: uuid.NewString(), Email: normalizeIdentity(email)}
	}
	user.Role = role
	p.users[user.Email] = user
}

// Mail is the payload handed to the notification channel.
type Mail struct {
	To      string
	Subject string
	Body    string
}

// Mailer is the outbound notification collaborator. Send must not be called
// while any engine lock is held; it may block on network I/O and may fail
// independently of code issuance.
type Mailer interface {
	Send(ctx context.Context, mail Mail) error
}

// WriterMailer writes outgoing mail to an io.Writer instead of delivering it.
// Useful in development, where the code is read off the process log.
type WriterMailer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterMailer creates a [WriterMailer] targeting w.
func NewWriterMailer(w io.Writer) *WriterMailer {
	return &WriterMailer{w: w}
}

// Send implements [Mailer].
func (m *WriterMailer) Send(_ context.Context, mail Mail) error {
	if m == nil || m.w == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	_, err := fmt.Fprintf(m.w, "mail to=%s subject=%q\n%s\n", mail.To, mail.Subject, mail.Body)
	return err
}

// OrderUpdater is the downstream order collaborator for trusted payment
// events. Implementations must be idempotent: the processor may deliver the
// same event more than once and each delivery independently re-verifies.
type OrderUpdater interface {
	ApplyPaymentEvent(ctx context.Context, event webhook.Event) error
}

// normalizeIdentity maps every spelling of the same email to one store key.
// Normalization is idempotent: lowercase + trim.
func normalizeIdentity(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validIdentity is the minimal shape check applied after normalization.
// Full address validation belongs to the delivery channel.
func validIdentity(email string) bool {
	at := strings.IndexByte(email, '@')
	return at > 0 && at < len(email)-1
}
