package auth

import "testing"

func TestNotifier_CallsListenersInOrder(t *testing.T) {
	n := NewNotifier()
	var calls []string
	n.OnChange(func(id string) { calls = append(calls, "cache:"+id) })
	n.OnChange(func(id string) { calls = append(calls, "view:"+id) })

	n.Notify("identity-1")

	if len(calls) != 2 || calls[0] != "cache:identity-1" || calls[1] != "view:identity-1" {
		t.Errorf("unexpected calls %v", calls)
	}
}

func TestNotifier_NoListeners(t *testing.T) {
	NewNotifier().Notify("identity-1")
}
