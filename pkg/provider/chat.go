package provider

import "context"

// ChatSession carries the turn history of one conversation. Turns keep the order they were
// supplied in; every Send transmits the whole history plus the new message.
type ChatSession struct {
	client  *Client
	system  string
	history []Content
}

// Send issues one request and, on success, appends the user turn and the model turn.
func (s *ChatSession) Send(ctx context.Context, message string) (string, error) {
	user := UserText(message)
	contents := make([]Content, 0, len(s.history)+1)
	contents = append(contents, s.history...)
	contents = append(contents, user)

	resp, err := s.client.generate(ctx, s.client.models.Chat, &GenerateContentRequest{
		Contents:          contents,
		SystemInstruction: systemContent(s.system),
	})
	if err != nil {
		return "", err
	}

	reply := ModelText(resp.Text())
	if c := resp.first(); c != nil && c.Content != nil {
		reply = *c.Content
		reply.Role = RoleModel
	}
	s.history = append(s.history, user, reply)
	return resp.Text(), nil
}

// History returns a copy of the turns accumulated so far.
func (s *ChatSession) History() []Content {
	out := make([]Content, len(s.history))
	copy(out, s.history)
	return out
}
