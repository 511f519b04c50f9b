package emailsvc

import (
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/edulytics/backend/core"
)

var (
	// SentMessages captures sent mail for assertions in tests.
	SentMessages = make([]core.EmailMessage, 0)
	mu           sync.Mutex
)

type consoleService struct {
	defaultFromEmail mail.Address
	subjPrefix       string
	disableOutput    bool
}

var _ core.EmailService = (*consoleService)(nil)

func NewConsoleService(conf *core.Config) core.EmailService {
	return &consoleService{
		defaultFromEmail: conf.DefaultFromEmail,
		subjPrefix:       "[" + conf.AppName + "] ",
	}
}

// NewConsoleServiceMock silences output; messages are still recorded in SentMessages.
func NewConsoleServiceMock(conf *core.Config) core.EmailService {
	return &consoleService{
		defaultFromEmail: conf.DefaultFromEmail,
		subjPrefix:       "[" + conf.AppName + "] ",
		disableOutput:    true,
	}
}

func (svc consoleService) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		go svc.sendMessage(msg)
	}
}

func (svc consoleService) sendMessage(msg *core.EmailMessage) {
	if msg.HasRecipients() && msg.HasContent() {
		svc.send(*msg)
		mu.Lock()
		SentMessages = append(SentMessages, *msg)
		mu.Unlock()
	}
}

func (svc consoleService) send(msg core.EmailMessage) {
	if svc.disableOutput {
		return
	}

	body := new(strings.Builder)
	fmt.Fprintf(body, "From: %s\n", svc.defaultFromEmail.String())
	fmt.Fprintf(body, "To: %s\n", joinAddresses(msg.To))
	if len(msg.Cc) > 0 {
		fmt.Fprintf(body, "Cc: %s\n", joinAddresses(msg.Cc))
	}
	fmt.Fprintf(body, "Date: %s\n", time.Now().Format(time.RFC1123Z))
	fmt.Fprintf(body, "Subject: %s\n\n", svc.subjPrefix+msg.Subject)
	body.WriteString(msg.BodyStr)
	fmt.Println(body.String())
}

func joinAddresses(addrs []mail.Address) string {
	strs := make([]string, 0, len(addrs))
	for _, addr := range addrs {
		strs = append(strs, addr.String())
	}
	return strings.Join(strs, ", ")
}
