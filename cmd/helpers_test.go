package cmd

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// scriptedPrompter returns canned answers in order.
type scriptedPrompter struct {
	answers []string
	next    int
}

func (p *scriptedPrompter) ReadLine(prompt string) (string, error) {
	if p.next >= len(p.answers) {
		return "", fmt.Errorf("no scripted answer for prompt %q", prompt)
	}
	answer := p.answers[p.next]
	p.next++
	return answer, nil
}

// fakePasswordReader returns a fixed password.
type fakePasswordReader struct {
	password string
	terminal bool
}

func (r *fakePasswordReader) ReadPassword() (string, error) { return r.password, nil }
func (r *fakePasswordReader) IsTerminal() bool              { return r.terminal }

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}
