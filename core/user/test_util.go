package user

import (
	"github.com/medshare/backend/core"
)

type serviceMock struct {
	service
}

// NewServiceMock returns a Service whose outbound emails are sent
// synchronously so tests can assert on them.
func NewServiceMock(repo Repository, mailSvc core.EmailService) Service {
	return &serviceMock{
		service: service{
			repo:    repo,
			mailSvc: mailSvc,
		},
	}
}
