package services

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serramalhas/malhas-backend/internal/models"
)

func newLeadEnv(t *testing.T) (*testEnv, *LeadService) {
	t.Helper()
	env := newTestEnv(t)

	group := uuid.New()
	_, err := env.products.UpdateProduct(env.product.ID, &UpdateProductRequest{GroupID: &group})
	require.NoError(t, err)

	return env, NewLeadService(env.cfg.WhatsApp, env.cfg.Pricing, env.products, env.colors)
}

func leadRequest(env *testEnv, colors ...LeadColor) *WhatsAppLeadRequest {
	return &WhatsAppLeadRequest{
		WhatsApp:     "(22) 99883-3821",
		FullName:     "Ana Souza",
		CityUF:       "Nova Friburgo/RJ",
		CompanyName:  "Confecções Ana",
		CustomerType: models.CustomerTypeGarment,
		ProductID:    env.product.ID,
		Colors:       colors,
	}
}

func TestBuildWhatsAppLead(t *testing.T) {
	env, leads := newLeadEnv(t)

	lead, err := leads.BuildWhatsAppLead(leadRequest(env,
		LeadColor{ColorID: env.branco.ID, Quantity: 240},
		LeadColor{ColorID: env.preto.ID, Quantity: 300},
	))
	require.NoError(t, err)

	assert.Equal(t, 540.0, lead.TotalKg)
	assert.Equal(t, 240.0, lead.MinimumLot)
	assert.Contains(t, lead.Message, "  - BRANCO: 240kg")
	assert.Contains(t, lead.Message, "  - PRETO: 300kg")
	assert.Contains(t, lead.Message, "WhatsApp: (22) 99883-3821")
	assert.Contains(t, lead.Message, "Tipo: Confeccao")
	assert.Contains(t, lead.Message, "*Total: 540kg*")

	assert.True(t, strings.HasPrefix(lead.URL, "https://wa.me/5522998833821?text="))
	assert.NotContains(t, lead.URL, "+")
	assert.Contains(t, lead.URL, "%20")
}

func TestBuildWhatsAppLeadMinimumLot(t *testing.T) {
	env, leads := newLeadEnv(t)

	_, err := leads.BuildWhatsAppLead(leadRequest(env, LeadColor{ColorID: env.branco.ID, Quantity: 239}))
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "minimum_lot", verr.Code)
	assert.Equal(t, "lead.minimum_lot", verr.Key)
	assert.Equal(t, []interface{}{"240"}, verr.Args)

	name := "Suplex Poliamida"
	_, err = env.products.UpdateProduct(env.product.ID, &UpdateProductRequest{Name: &name})
	require.NoError(t, err)

	lead, err := leads.BuildWhatsAppLead(leadRequest(env, LeadColor{ColorID: env.branco.ID, Quantity: 210}))
	require.NoError(t, err)
	assert.Equal(t, 210.0, lead.MinimumLot)
}

func TestBuildWhatsAppLeadRejectsDuplicateAndForeignColors(t *testing.T) {
	env, leads := newLeadEnv(t)

	_, err := leads.BuildWhatsAppLead(leadRequest(env,
		LeadColor{ColorID: env.branco.ID, Quantity: 300},
		LeadColor{ColorID: env.branco.ID, Quantity: 300},
	))
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "lead.duplicate_color", verr.Key)

	lilas, err := env.colors.CreateColor(&CreateColorRequest{Name: "Lilás"})
	require.NoError(t, err)
	_, err = leads.BuildWhatsAppLead(leadRequest(env, LeadColor{ColorID: lilas.ID, Quantity: 300}))
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "color_unavailable", verr.Code)
}

func TestBuildWhatsAppLeadInactiveProduct(t *testing.T) {
	env, leads := newLeadEnv(t)
	inactive := false
	_, err := env.products.UpdateProduct(env.product.ID, &UpdateProductRequest{IsActive: &inactive})
	require.NoError(t, err)

	_, err = leads.BuildWhatsAppLead(leadRequest(env, LeadColor{ColorID: env.branco.ID, Quantity: 300}))
	var nf *NotFoundError
	assert.True(t, errors.As(err, &nf))
}

func TestBuildWhatsAppLeadValidatesPhone(t *testing.T) {
	env, leads := newLeadEnv(t)
	req := leadRequest(env, LeadColor{ColorID: env.branco.ID, Quantity: 300})
	req.WhatsApp = "12345"

	_, err := leads.BuildWhatsAppLead(req)
	assert.Error(t, err)
}

func TestContactLinks(t *testing.T) {
	_, leads := newLeadEnv(t)

	links := leads.Contact()
	assert.Equal(t, "https://wa.me/5522998833821", links.Sales)
	assert.Equal(t, "https://wa.me/5522997550012", links.Contact)
}
