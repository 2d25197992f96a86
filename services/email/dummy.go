package emailsvc

import "github.com/trezcool/shule/core"

// DummyService records sent messages for assertions in tests.
type DummyService struct {
	SentMessages []core.EmailMessage
}

var _ core.EmailService = (*DummyService)(nil)

func NewDummyService() *DummyService {
	return &DummyService{SentMessages: make([]core.EmailMessage, 0)}
}

func (svc *DummyService) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		if err := msg.Render(); err != nil {
			continue
		}
		if msg.HasRecipients() && msg.HasContent() {
			svc.SentMessages = append(svc.SentMessages, *msg)
		}
	}
}
