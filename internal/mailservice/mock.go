package mailservice

import (
	"bytes"
	"errors"
	"sync"

	"github.com/go-mail/mail/v2"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/mock"
	"github.com/sushihentaime/codestar/internal/common"
)

type MockTemplate struct {
	mock.Mock
}

func (m *MockTemplate) ParseTemplate(name string, data any) (*bytes.Buffer, *bytes.Buffer, *bytes.Buffer, error) {
	args := m.Called(name, data)
	return args.Get(0).(*bytes.Buffer), args.Get(1).(*bytes.Buffer), args.Get(2).(*bytes.Buffer), args.Error(3)
}

type MockDialer struct {
	mock.Mock
}

func (d *MockDialer) DialAndSend(m ...*mail.Message) error {
	args := d.Called(m)
	return args.Error(0)
}

// MockMailer fails the first Failures sends and reports every successful one on Sent.
type MockMailer struct {
	mu       sync.Mutex
	Failures int
	Attempts int
	Sent     chan sentMail
}

type sentMail struct {
	Recipient string
	ReplyTo   string
	Data      any
	Template  string
}

func NewMockMailer(failures int) *MockMailer {
	return &MockMailer{Failures: failures, Sent: make(chan sentMail, 10)}
}

func (m *MockMailer) send(recipient, replyTo string, data any, templateFile string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Attempts++
	if m.Attempts <= m.Failures {
		return errors.New("smtp unavailable")
	}

	m.Sent <- sentMail{Recipient: recipient, ReplyTo: replyTo, Data: data, Template: templateFile}
	return nil
}

func (m *MockMailer) attempts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Attempts
}

// MockMessageConsumer delivers Bodies on the queue and then closes it.
type MockMessageConsumer struct {
	mock.Mock
	Bodies []string
}

func (m *MockMessageConsumer) Consume(key common.BindingKey, exchange common.Exchange, queue common.Queue) (<-chan amqp.Delivery, error) {
	args := m.Called(key, exchange, queue)
	if err := args.Error(0); err != nil {
		return nil, err
	}

	msgsChan := make(chan amqp.Delivery)

	go func() {
		defer close(msgsChan)

		for _, body := range m.Bodies {
			msgsChan <- amqp.Delivery{Body: []byte(body)}
		}
	}()

	return msgsChan, nil
}

type MockLogger struct {
	mock.Mock
}

func (l *MockLogger) Error(msg string, args ...any) {
	l.Called(msg, args)
}

func (l *MockLogger) Info(msg string, args ...any) {
	l.Called(msg, args)
}
