package emailsvc

import (
	"encoding/json"
	"fmt"
	"net/mail"
	"testing"

	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jaimin17/Zenith-School-Backend/core"
)

type sgAddress struct {
	Email string `json:"email"`
}

type sgPersonalization struct {
	To      []sgAddress `json:"to"`
	Cc      []sgAddress `json:"cc"`
	Bcc     []sgAddress `json:"bcc"`
	Subject string      `json:"subject"`
}

func newTestMailer() *sendgridMailer {
	return NewSendgridService(&core.Config{
		AppName:          "Z",
		DefaultFromEmail: mail.Address{Name: "Zenith", Address: "noreply@zenith.test"},
	}, nil).(*sendgridMailer)
}

func decodePersonalizations(t *testing.T, m *sendgridMailer, msg core.EmailMessage) []sgPersonalization {
	var body struct {
		Personalizations []sgPersonalization `json:"personalizations"`
	}
	require.NoError(t, json.Unmarshal(sgmail.GetRequestBody(m.build(msg)), &body))
	return body.Personalizations
}

func addresses(n int) []mail.Address {
	addrs := make([]mail.Address, n)
	for i := range addrs {
		addrs[i] = mail.Address{Address: fmt.Sprintf("r%d@zenith.test", i)}
	}
	return addrs
}

func Test_sendgridMailer_build(t *testing.T) {
	m := newTestMailer()

	t.Run("bcc only is addressed to the sender", func(t *testing.T) {
		ps := decodePersonalizations(t, m, core.EmailMessage{
			Bcc:         []mail.Address{{Address: "s1@x"}, {Address: "p1@x"}},
			Subject:     "1A: Trip",
			TextContent: "see you",
		})
		require.Len(t, ps, 1)
		assert.Equal(t, []sgAddress{{Email: "noreply@zenith.test"}}, ps[0].To)
		assert.Equal(t, []sgAddress{{Email: "s1@x"}, {Email: "p1@x"}}, ps[0].Bcc)
		assert.Equal(t, "[Z] 1A: Trip", ps[0].Subject)
	})

	t.Run("explicit recipients are kept", func(t *testing.T) {
		ps := decodePersonalizations(t, m, core.EmailMessage{
			To:          []mail.Address{{Address: "t@x"}},
			Cc:          []mail.Address{{Address: "c@x"}},
			Subject:     "Password reset",
			TextContent: "reset",
		})
		require.Len(t, ps, 1)
		assert.Equal(t, []sgAddress{{Email: "t@x"}}, ps[0].To)
		assert.Equal(t, []sgAddress{{Email: "c@x"}}, ps[0].Cc)
		assert.Empty(t, ps[0].Bcc)
	})

	t.Run("large bcc lists are batched", func(t *testing.T) {
		ps := decodePersonalizations(t, m, core.EmailMessage{Bcc: addresses(2500), TextContent: "hi"})
		require.Len(t, ps, 3)

		total := 0
		for _, p := range ps {
			require.NotEmpty(t, p.To)
			assert.LessOrEqual(t, len(p.To)+len(p.Cc)+len(p.Bcc), maxRecipients)
			total += len(p.Bcc)
		}
		assert.Equal(t, 2500, total)
		assert.Equal(t, "r0@zenith.test", ps[0].Bcc[0].Email)
		assert.Equal(t, "r2499@zenith.test", ps[2].Bcc[len(ps[2].Bcc)-1].Email)
	})
}
