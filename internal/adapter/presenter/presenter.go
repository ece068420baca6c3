package presenter

import "strings"

// Presenter delivers text and board images without coupling callers to the
// output medium.
type Presenter struct {
	sendMessage func(message string) error
	sendImage   func(png []byte) error
}

func NewPresenter(sendMessage func(message string) error, sendImage func(png []byte) error) *Presenter {
	return &Presenter{sendMessage: sendMessage, sendImage: sendImage}
}

// Message sends text unless it is blank.
func (p *Presenter) Message(message string) error {
	if p == nil || p.sendMessage == nil || strings.TrimSpace(message) == "" {
		return nil
	}
	return p.sendMessage(message)
}

// Board sends message and then image when both sinks and payloads are present.
func (p *Presenter) Board(message string, image []byte) error {
	if p == nil {
		return nil
	}
	if err := p.Message(message); err != nil {
		return err
	}
	if len(image) > 0 && p.sendImage != nil {
		return p.sendImage(image)
	}
	return nil
}
