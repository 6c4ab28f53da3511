package notify

import (
	"fmt"
	"strings"

	"github.com/mealdash/notification-gateway/internal/model"
)

// PushTemplate is a per-class, per-event push message. Variables use
// {{name}} placeholders, substituted by Render.
type PushTemplate struct {
	Title string
	Body  string
}

func (t PushTemplate) Render(vars map[string]string) (title, body string) {
	return substitute(t.Title, vars), substitute(t.Body, vars)
}

func substitute(s string, vars map[string]string) string {
	for k, v := range vars {
		s = strings.ReplaceAll(s, "{{"+k+"}}", v)
	}
	return s
}

// customerPushTemplates must cover every DeliveryEvent; customers hear about
// the full lifecycle. TestCustomerTemplatesExhaustive enforces this, so
// adding an enum member without a template fails the build gates.
var customerPushTemplates = map[model.DeliveryEvent]PushTemplate{
	model.EventAssigned: {
		Title: "Driver assigned to your order",
		Body:  "A driver has been assigned to order {{order_number}}.",
	},
	model.EventEnRoute: {
		Title: "Your order is on the way",
		Body:  "Order {{order_number}} is en route to you.",
	},
	model.EventArrived: {
		Title: "Your driver has arrived",
		Body:  "The driver for order {{order_number}} is at your address.",
	},
	model.EventCompleted: {
		Title: "Order delivered",
		Body:  "Order {{order_number}} has been delivered. Enjoy!",
	},
	model.EventDelayed: {
		Title: "Your order is running late",
		Body:  "Order {{order_number}} is delayed. We're sorry for the wait.",
	},
	model.EventFailed: {
		Title: "Delivery problem with your order",
		Body:  "We hit a problem delivering order {{order_number}}. Support has been notified.",
	},
}

// adminPushTemplates only exist for the critical subset; the resolver never
// produces admin recipients outside it.
var adminPushTemplates = map[model.DeliveryEvent]PushTemplate{
	model.EventCompleted: {
		Title: "Order completed",
		Body:  "Order {{order_number}} (dispatch {{dispatch_id}}) completed.",
	},
	model.EventDelayed: {
		Title: "Order delayed",
		Body:  "Order {{order_number}} (dispatch {{dispatch_id}}) is running late.",
	},
	model.EventFailed: {
		Title: "Delivery failed",
		Body:  "Order {{order_number}} (dispatch {{dispatch_id}}) failed to deliver.",
	},
}

var vendorPushTemplates = map[model.DeliveryEvent]PushTemplate{
	model.EventAssigned: {
		Title: "Driver assigned",
		Body:  "A driver was assigned to pick up order {{order_number}}.",
	},
	model.EventCompleted: {
		Title: "Order delivered",
		Body:  "Order {{order_number}} was delivered to the customer.",
	},
	model.EventFailed: {
		Title: "Delivery failed",
		Body:  "Order {{order_number}} could not be delivered.",
	},
}

// LookupPushTemplate returns the template for a class/event pair. A missing
// template means the event is a no-op for that class, not an error.
func LookupPushTemplate(class model.RecipientClass, event model.DeliveryEvent) (PushTemplate, bool) {
	switch class {
	case model.RecipientCustomer:
		t, ok := customerPushTemplates[event]
		return t, ok
	case model.RecipientAdmin:
		t, ok := adminPushTemplates[event]
		return t, ok
	case model.RecipientStore:
		t, ok := vendorPushTemplates[event]
		return t, ok
	}
	return PushTemplate{}, false
}

// Renderer is the external template collaborator for email bodies: a pure
// function from template id + variables to html and text.
type Renderer interface {
	Render(templateID string, vars map[string]string) (html string, text string, err error)
}

// EmailTemplateID names the delivery-status email template for an event.
func EmailTemplateID(event model.DeliveryEvent) string {
	return "delivery_status_" + string(event)
}

type emailTemplate struct {
	Subject string
	HTML    string
	Text    string
}

var deliveryEmailTemplates = map[string]emailTemplate{
	EmailTemplateID(model.EventAssigned): {
		Subject: "A driver is on it — order {{order_number}}",
		HTML:    "<p>Hi! A driver has been assigned to your order <b>{{order_number}}</b>.</p>",
		Text:    "A driver has been assigned to your order {{order_number}}.",
	},
	EmailTemplateID(model.EventEnRoute): {
		Subject: "Your order {{order_number}} is on the way",
		HTML:    "<p>Order <b>{{order_number}}</b> is en route to you.</p>",
		Text:    "Order {{order_number}} is en route to you.",
	},
	EmailTemplateID(model.EventArrived): {
		Subject: "Your driver has arrived — order {{order_number}}",
		HTML:    "<p>The driver for order <b>{{order_number}}</b> is at your address.</p>",
		Text:    "The driver for order {{order_number}} is at your address.",
	},
	EmailTemplateID(model.EventCompleted): {
		Subject: "Order {{order_number}} delivered",
		HTML:    "<p>Order <b>{{order_number}}</b> has been delivered. Enjoy!</p>",
		Text:    "Order {{order_number}} has been delivered. Enjoy!",
	},
	EmailTemplateID(model.EventDelayed): {
		Subject: "Order {{order_number}} is running late",
		HTML:    "<p>Order <b>{{order_number}}</b> is delayed. We're sorry for the wait.</p>",
		Text:    "Order {{order_number}} is delayed. We're sorry for the wait.",
	},
	EmailTemplateID(model.EventFailed): {
		Subject: "Problem delivering order {{order_number}}",
		HTML:    "<p>We hit a problem delivering order <b>{{order_number}}</b>. Support has been notified.</p>",
		Text:    "We hit a problem delivering order {{order_number}}. Support has been notified.",
	},
}

// StaticRenderer renders from the built-in template table. The production
// deployment can swap in a CMS-backed renderer; the contract is the same.
type StaticRenderer struct{}

func (StaticRenderer) Render(templateID string, vars map[string]string) (string, string, error) {
	t, ok := deliveryEmailTemplates[templateID]
	if !ok {
		return "", "", fmt.Errorf("unknown template %q", templateID)
	}
	return substitute(t.HTML, vars), substitute(t.Text, vars), nil
}

// EmailSubject returns the rendered subject line for an event's email.
func EmailSubject(event model.DeliveryEvent, vars map[string]string) string {
	t, ok := deliveryEmailTemplates[EmailTemplateID(event)]
	if !ok {
		return "Order update"
	}
	return substitute(t.Subject, vars)
}
