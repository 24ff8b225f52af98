package notify

import (
	"bytes"
	"fmt"
	"html"
	"html/template"
	"strings"
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
)

// PreviewLimit is the longest comment preview shown in notifications.
const PreviewLimit = 100

// Preview shortens body to PreviewLimit runes, ending in "..." when cut.
func Preview(body string) string {
	if len([]rune(body)) <= PreviewLimit {
		return body
	}
	return truncateRunes(body, PreviewLimit-3) + "..."
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

var priorityEmoji = map[domain.TicketPriority]string{
	domain.TicketPriorityLow:    "🟢",
	domain.TicketPriorityMedium: "🟡",
	domain.TicketPriorityHigh:   "🟠",
	domain.TicketPriorityUrgent: "🔴",
}

var categoryEmoji = map[domain.TicketCategory]string{
	domain.TicketCategoryHardware: "🖥️",
	domain.TicketCategorySoftware: "💻",
	domain.TicketCategoryNetwork:  "🌐",
	domain.TicketCategoryEmail:    "📧",
	domain.TicketCategorySystem:   "⚙️",
	domain.TicketCategoryNewHire:  "🧑‍💼",
	domain.TicketCategoryOther:    "📝",
}

var statusEmoji = map[domain.TicketStatus]string{
	domain.TicketStatusOpen:       "🆕",
	domain.TicketStatusInProgress: "⚙️",
	domain.TicketStatusWaiting:    "⏳",
	domain.TicketStatusResolved:   "✅",
	domain.TicketStatusClosed:     "🔒",
	domain.TicketStatusCancelled:  "🚫",
}

func emojiOr[K comparable](m map[K]string, key K, fallback string) string {
	if e, ok := m[key]; ok {
		return e
	}
	return fallback
}

func upper[S ~string](s S) string {
	return strings.ToUpper(string(s))
}

// TicketCreatedChat formats the new-ticket chat message.
func TicketCreatedChat(p events.TicketCreatedPayload) string {
	var b strings.Builder
	b.WriteString("🆕 <b>NEW IT TICKET</b>\n\n")
	fmt.Fprintf(&b, "%s <b>Category:</b> %s\n", emojiOr(categoryEmoji, p.Ticket.Category, "📝"), upper(p.Ticket.Category))
	fmt.Fprintf(&b, "%s <b>Priority:</b> %s\n\n", emojiOr(priorityEmoji, p.Ticket.Priority, "🟡"), upper(p.Ticket.Priority))
	fmt.Fprintf(&b, "<b>Title:</b> %s\n", html.EscapeString(p.Ticket.Title))
	fmt.Fprintf(&b, "<b>Requester:</b> %s\n", html.EscapeString(p.Ticket.CreatorName))
	fmt.Fprintf(&b, "<b>Ticket:</b> %s\n\n", p.Ticket.ExternalKey)
	b.WriteString("<i>Open the helpdesk for details</i>")
	return b.String()
}

// StatusChangedChat formats the status-change chat message.
func StatusChangedChat(p events.TicketStatusChangedPayload, actor string) string {
	var b strings.Builder
	b.WriteString("📊 <b>TICKET UPDATE</b>\n\n")
	fmt.Fprintf(&b, "<b>Ticket:</b> %s\n", p.Ticket.ExternalKey)
	fmt.Fprintf(&b, "<b>Title:</b> %s\n\n", html.EscapeString(p.Ticket.Title))
	fmt.Fprintf(&b, "%s %s ➡️ %s %s\n\n",
		emojiOr(statusEmoji, p.OldStatus, "📝"), upper(p.OldStatus),
		emojiOr(statusEmoji, p.NewStatus, "📝"), upper(p.NewStatus))
	fmt.Fprintf(&b, "<b>Updated by:</b> %s", html.EscapeString(actor))
	return b.String()
}

// CommentAddedChat formats the new-comment chat message.
func CommentAddedChat(p events.CommentAddedPayload, author string) string {
	var b strings.Builder
	b.WriteString("💬 <b>NEW COMMENT</b>\n\n")
	fmt.Fprintf(&b, "<b>Ticket:</b> %s\n", p.Ticket.ExternalKey)
	fmt.Fprintf(&b, "<b>Title:</b> %s\n\n", html.EscapeString(p.Ticket.Title))
	fmt.Fprintf(&b, "<b>Comment from %s:</b>\n", html.EscapeString(author))
	fmt.Fprintf(&b, "<i>%s</i>", html.EscapeString(p.Preview))
	return b.String()
}

// AssignedChat formats the assignment chat message.
func AssignedChat(p events.TicketAssignedPayload, actor string) string {
	var b strings.Builder
	b.WriteString("👤 <b>TICKET ASSIGNED</b>\n\n")
	fmt.Fprintf(&b, "<b>Ticket:</b> %s\n", p.Ticket.ExternalKey)
	fmt.Fprintf(&b, "<b>Title:</b> %s\n\n", html.EscapeString(p.Ticket.Title))
	fmt.Fprintf(&b, "<b>Assigned to:</b> %s\n", html.EscapeString(p.AssigneeName))
	fmt.Fprintf(&b, "<b>By:</b> %s", html.EscapeString(actor))
	return b.String()
}

var mailTemplate = template.Must(template.New("mail").Parse(`<!DOCTYPE html>
<html><body style="font-family: Arial, sans-serif; color: #333;">
<div style="max-width: 600px; margin: 0 auto; padding: 20px;">
<h2 style="color: #1e3a8a;">{{.Heading}}</h2>
<p>Hello {{.Name}},</p>
{{range .Lines}}<p>{{.}}</p>
{{end}}{{if .Code}}<p style="font-size: 32px; font-weight: bold; letter-spacing: 8px;">{{.Code}}</p>
<p>The code expires in {{.Minutes}} minutes.</p>
{{end}}{{if .Quote}}<blockquote style="border-left: 3px solid #ccc; padding-left: 10px;">{{.Quote}}</blockquote>
{{end}}<p style="color: #888; font-size: 12px;">This is an automated message from the IT helpdesk.</p>
</div></body></html>`))

type mailView struct {
	Heading string
	Name    string
	Lines   []string
	Code    string
	Minutes int
	Quote   string
}

func renderMail(name string, view mailView) (string, error) {
	var buf bytes.Buffer
	if err := mailTemplate.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("render %s email: %w", name, err)
	}
	return buf.String(), nil
}

// VerificationMail renders the password-change code email.
func VerificationMail(p events.VerificationCodePayload, now time.Time) (Mail, error) {
	minutes := int(p.ExpiresAt.Sub(now).Round(time.Minute) / time.Minute)
	if minutes < 1 {
		minutes = 1
	}
	body, err := renderMail("verification", mailView{
		Heading: "Password change verification code",
		Name:    p.Name,
		Lines:   []string{"Use the code below to confirm your password change."},
		Code:    p.Code,
		Minutes: minutes,
	})
	return Mail{To: p.Email, Subject: "Verification code for password change", HTMLBody: body}, err
}

// WelcomeMail renders the account-created email with the initial password.
func WelcomeMail(p events.UserWelcomePayload) (Mail, error) {
	body, err := renderMail("welcome", mailView{
		Heading: "Welcome to the IT helpdesk",
		Name:    p.Name,
		Lines: []string{
			"An account was created for you. Sign in with this email address and the initial password below.",
			"Initial password: " + p.Password,
			"Please change your password after your first sign-in.",
		},
	})
	return Mail{To: p.Email, Subject: "Welcome to the IT helpdesk", HTMLBody: body}, err
}

// StatusChangedMail renders the status email sent to the ticket's creator.
func StatusChangedMail(p events.TicketStatusChangedPayload, actor string) (Mail, error) {
	body, err := renderMail("status", mailView{
		Heading: "Ticket " + p.Ticket.ExternalKey + " was updated",
		Name:    p.Ticket.CreatorName,
		Lines: []string{
			"Ticket: " + p.Ticket.Title,
			fmt.Sprintf("Status: %s → %s", p.OldStatus, p.NewStatus),
			"Updated by: " + actor,
		},
	})
	return Mail{To: p.Ticket.CreatorEmail, Subject: fmt.Sprintf("[%s] Status changed to %s", p.Ticket.ExternalKey, p.NewStatus), HTMLBody: body}, err
}

// AssignedMail renders the assignment email sent to the new assignee.
func AssignedMail(p events.TicketAssignedPayload, actor string) (Mail, error) {
	body, err := renderMail("assigned", mailView{
		Heading: "Ticket " + p.Ticket.ExternalKey + " was assigned to you",
		Name:    p.AssigneeName,
		Lines: []string{
			"Ticket: " + p.Ticket.Title,
			"Requester: " + p.Ticket.CreatorName,
			"Assigned by: " + actor,
		},
	})
	return Mail{To: p.AssigneeEmail, Subject: fmt.Sprintf("[%s] Assigned to you", p.Ticket.ExternalKey), HTMLBody: body}, err
}

// CommentMail renders the new-comment email sent to the ticket's creator.
func CommentMail(p events.CommentAddedPayload, author string) (Mail, error) {
	body, err := renderMail("comment", mailView{
		Heading: "New comment on " + p.Ticket.ExternalKey,
		Name:    p.Ticket.CreatorName,
		Lines:   []string{"Ticket: " + p.Ticket.Title, author + " wrote:"},
		Quote:   p.Preview,
	})
	return Mail{To: p.Ticket.CreatorEmail, Subject: fmt.Sprintf("[%s] New comment", p.Ticket.ExternalKey), HTMLBody: body}, err
}
