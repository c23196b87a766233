package sse

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishRegenerate(t *testing.T) {
	h := NewHub(nil)
	all := NewClient("")
	mine := NewClient("CPLP-a-1")
	other := NewClient("CPLP-a-2")
	h.Register(all)
	h.Register(mine)
	h.Register(other)
	assert.Equal(t, 3, h.Count())

	h.PublishRegenerate("CPLP-a-1")

	for _, c := range []*Client{all, mine} {
		select {
		case ev := <-c.Events:
			assert.Equal(t, EventRegenerate, ev.EventType)
			var data map[string]string
			require.NoError(t, json.Unmarshal([]byte(ev.Data), &data))
			assert.Equal(t, "CPLP-a-1", data["processId"])
		default:
			t.Fatalf("client %s got no event", c.ID)
		}
	}
	assert.Len(t, other.Events, 0)
}

func TestFullBufferDropsEvent(t *testing.T) {
	h := NewHub(nil)
	c := NewClient("")
	h.Register(c)

	for i := 0; i < clientBuffer+10; i++ {
		h.PublishProcessoUpdate("x", "guardado")
	}
	assert.Len(t, c.Events, clientBuffer)
}

func TestUnregisterClosesChannel(t *testing.T) {
	h := NewHub(nil)
	c := NewClient("")
	h.Register(c)
	h.Unregister(c.ID)
	h.Unregister(c.ID)

	_, open := <-c.Events
	assert.False(t, open)
	assert.Equal(t, 0, h.Count())
	assert.NotPanics(t, func() { h.PublishRegenerate("x") })
}
