package notify

import (
	"testing"

	"github.com/mealdash/notification-gateway/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomerTemplatesExhaustive(t *testing.T) {
	for _, event := range model.AllDeliveryEvents() {
		_, ok := customerPushTemplates[event]
		assert.True(t, ok, "customer push template missing for event %q", event)

		_, ok = deliveryEmailTemplates[EmailTemplateID(event)]
		assert.True(t, ok, "delivery email template missing for event %q", event)
	}
}

func TestRenderSubstitutesVariables(t *testing.T) {
	tmpl, ok := LookupPushTemplate(model.RecipientCustomer, model.EventEnRoute)
	require.True(t, ok)

	title, body := tmpl.Render(map[string]string{"order_number": "MD-1042"})
	assert.NotContains(t, title, "{{")
	assert.Contains(t, body, "MD-1042")
}

func TestLookupPushTemplate_NoTemplateMeansNoop(t *testing.T) {
	// Admins only hear about the critical subset.
	_, ok := LookupPushTemplate(model.RecipientAdmin, model.EventEnRoute)
	assert.False(t, ok)

	_, ok = LookupPushTemplate(model.RecipientStore, model.EventArrived)
	assert.False(t, ok)

	_, ok = LookupPushTemplate(model.RecipientAdmin, model.EventFailed)
	assert.True(t, ok)
}

func TestStaticRenderer(t *testing.T) {
	r := StaticRenderer{}

	t.Run("known template", func(t *testing.T) {
		html, text, err := r.Render(EmailTemplateID(model.EventCompleted), map[string]string{"order_number": "MD-7"})
		require.NoError(t, err)
		assert.Contains(t, html, "MD-7")
		assert.Contains(t, text, "MD-7")
	})

	t.Run("unknown template", func(t *testing.T) {
		_, _, err := r.Render("no_such_template", nil)
		assert.Error(t, err)
	})
}

func TestEmailSubject(t *testing.T) {
	subject := EmailSubject(model.EventDelayed, map[string]string{"order_number": "MD-9"})
	assert.Contains(t, subject, "MD-9")
}
