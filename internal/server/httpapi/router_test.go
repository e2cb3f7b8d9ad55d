package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/chanakya/internal/common"
	"github.com/dmitrijs2005/chanakya/internal/server/models"
	"github.com/dmitrijs2005/chanakya/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealth(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/api/health", "", false)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, true, body["apiConnected"])
	assert.Equal(t, "2025-01-02T03:04:05.000Z", body["timestamp"])
	assert.NotEmpty(t, rec.Header().Get(common.RequestIDHeaderName))
}

func TestRequestIDIsEchoed(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set(common.RequestIDHeaderName, "req-42")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, "req-42", rec.Header().Get(common.RequestIDHeaderName))
}

func TestSignup(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		body     string
		wantCode int
		wantErr  string
	}{
		{"created", nil, `{"name":"Asha","email":"a@b.c","password":"pw"}`, http.StatusCreated, ""},
		{"duplicate", common.ErrAlreadyExists, `{"email":"a@b.c","password":"pw"}`, http.StatusBadRequest, "Email already registered"},
		{"missing fields", common.ErrValidation, `{"email":""}`, http.StatusBadRequest, "Email and password are required"},
		{"store down", errors.New("db"), `{"email":"a@b.c","password":"pw"}`, http.StatusInternalServerError, "Failed to create account. Please try again."},
		{"bad json", nil, `{`, http.StatusBadRequest, "Invalid request body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.accounts.registerToken = "tok"
			f.accounts.registerErr = tt.err

			rec := f.do(http.MethodPost, "/api/signup", tt.body, false)
			require.Equal(t, tt.wantCode, rec.Code)

			body := decode(t, rec)
			if tt.wantErr != "" {
				assert.Equal(t, tt.wantErr, body["error"])
				return
			}
			assert.Equal(t, "tok", body["access_token"])
			assert.Equal(t, "bearer", body["token_type"])
			assert.Equal(t, "Asha", f.accounts.gotName)
		})
	}
}

func TestSignin_FormAndJSON(t *testing.T) {
	f := newFixture(t)
	f.accounts.loginToken = "tok"

	form := url.Values{"username": {"a@b.c"}, "password": {"pw"}}
	req := httptest.NewRequest(http.MethodPost, "/api/signin", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "tok", decode(t, rec)["access_token"])
	assert.Equal(t, "a@b.c", f.accounts.gotEmail)
	assert.Equal(t, "pw", f.accounts.gotPassword)

	rec = f.do(http.MethodPost, "/api/signin", `{"username":"x@y.z","password":"pw2"}`, false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "x@y.z", f.accounts.gotEmail)
}

func TestSignin_Errors(t *testing.T) {
	f := newFixture(t)

	f.accounts.loginErr = common.ErrUnauthorized
	rec := f.do(http.MethodPost, "/api/signin", `{"username":"a@b.c","password":"bad"}`, false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Incorrect email or password", decode(t, rec)["error"])

	f.accounts.loginErr = common.ErrValidation
	rec = f.do(http.MethodPost, "/api/signin", `{"username":"a@b.c"}`, false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Password is required", decode(t, rec)["error"])
}

func TestAuthMiddleware(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/api/me", "", false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Access token required", decode(t, rec)["error"])

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set(common.AuthorizationHeaderName, "Bearer nope")
	rec = httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Invalid or expired token", decode(t, rec)["error"])

	f.accounts.authErr = common.ErrTokenExpired
	rec = f.do(http.MethodGet, "/api/me", "", true)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	f.accounts.authErr = common.ErrNotFound
	rec = f.do(http.MethodGet, "/api/me", "", true)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "User not found", decode(t, rec)["error"])

	f.accounts.authErr = errors.New("db down")
	rec = f.do(http.MethodGet, "/api/me", "", true)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestMe(t *testing.T) {
	f := newFixture(t)
	f.accounts.user.ChatMessagesUsed = 7
	f.accounts.user.FreeItineraryUsed = true

	rec := f.do(http.MethodGet, "/api/me", "", true)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "Asha", body["name"])
	assert.Equal(t, "asha@example.com", body["email"])
	assert.Equal(t, "free", body["subscription_status"])
	assert.Equal(t, false, body["has_premium_subscription"])
	assert.Equal(t, true, body["free_itinerary_used"])
	assert.EqualValues(t, 7, body["chat_messages_used"])
	assert.EqualValues(t, 0, body["itineraries_created"])
}

func TestChatConversation(t *testing.T) {
	f := newFixture(t)
	used, limit, premium := 4, 20, false
	f.chat.reply = &services.ChatReply{Response: "Namaste!", MessagesUsed: &used, FreeLimit: &limit, HasPremium: &premium}

	rec := f.do(http.MethodPost, "/api/chat-conversation",
		`{"system_prompt":"sys","conversation_history":[{"sender":"user","text":"Goa"}],"user_name":"Asha"}`, true)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "Namaste!", body["response"])
	assert.EqualValues(t, 4, body["messages_used"])
	assert.Equal(t, false, body["has_premium"])
	assert.Equal(t, "sys", f.chat.got.SystemPrompt)
	require.Len(t, f.chat.got.History, 1)
	assert.Equal(t, "Goa", f.chat.got.History[0].Text)
}

func TestChatConversation_BadBodyGetsCannedReply(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/api/chat-conversation", `{"conversation_history": 12}`, true)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, services.ChatFailureReply, body["response"])
	assert.NotContains(t, body, "messages_used")
	assert.Zero(t, f.chat.calls)
}

func TestGenerateItinerary(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		f := newFixture(t)
		f.its.result = &services.GenerationResult{
			Outcome:   services.OutcomeSuccess,
			Itinerary: map[string]any{"itinerary_id": "it-1", "destination_name": "Goa"},
			Message:   services.GeneratedMessage,
		}

		rec := f.do(http.MethodPost, "/api/generate-itinerary",
			`{"messages":[{"sender":"user","text":"Goa"}],"current_itinerary":{"x":1}}`, true)
		require.Equal(t, http.StatusOK, rec.Code)

		body := decode(t, rec)
		assert.Equal(t, services.GeneratedMessage, body["llm_message"])
		assert.Equal(t, "it-1", body["itinerary"].(map[string]any)["itinerary_id"])
		assert.Equal(t, []models.Turn{{Sender: "user", Text: "Goa"}}, f.its.gotTurns)
	})

	t.Run("fallback is still 200", func(t *testing.T) {
		f := newFixture(t)
		f.its.result = &services.GenerationResult{
			Outcome:   services.OutcomeFallback,
			Itinerary: services.FallbackItinerary("Goa"),
			Message:   services.FallbackMessage,
		}

		rec := f.do(http.MethodPost, "/api/generate-itinerary", `{"messages":[]}`, true)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, services.FallbackMessage, decode(t, rec)["llm_message"])
	})

	t.Run("blocked", func(t *testing.T) {
		f := newFixture(t)
		f.its.result = &services.GenerationResult{Outcome: services.OutcomeBlocked, Message: services.BlockedMessage}

		rec := f.do(http.MethodPost, "/api/generate-itinerary", `{"messages":[]}`, true)
		require.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, services.BlockedMessage, decode(t, rec)["error"])
	})

	t.Run("hard error", func(t *testing.T) {
		f := newFixture(t)
		f.its.genErr = errors.New("store itinerary: db down")

		rec := f.do(http.MethodPost, "/api/generate-itinerary", `{"messages":[]}`, true)
		require.Equal(t, http.StatusInternalServerError, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, "Failed to generate itinerary", body["error"])
		assert.NotContains(t, rec.Body.String(), "db down")
	})
}

func TestMyItineraries(t *testing.T) {
	f := newFixture(t)
	f.its.list = []models.Summary{{ID: "it-2", Destination: "Jaipur", PersonalizedTitle: "Pink City"}}

	rec := f.do(http.MethodGet, "/api/my-itineraries", "", true)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Itineraries []models.Summary `json:"itineraries"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Itineraries, 1)
	assert.Equal(t, "Pink City", body.Itineraries[0].PersonalizedTitle)

	f.its.listErr = errors.New("db")
	rec = f.do(http.MethodGet, "/api/my-itineraries", "", true)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestGetItinerary(t *testing.T) {
	f := newFixture(t)
	f.its.view = &services.ItineraryView{
		ID:             "it-1",
		UserInfo:       services.UserInfo{Email: "asha@example.com", Name: "Asha"},
		TripParameters: models.TripParams{Destination: "Goa", Pace: "relaxed"},
		Itinerary:      json.RawMessage(`{"destination_name":"Goa"}`),
		CreatedAt:      time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	rec := f.do(http.MethodGet, "/api/itinerary/it-1", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "it-1", f.its.gotID)

	body := decode(t, rec)
	assert.Equal(t, "it-1", body["itinerary_id"])
	assert.Equal(t, "relaxed", body["trip_parameters"].(map[string]any)["pace"])
	assert.Equal(t, "Goa", body["itinerary"].(map[string]any)["destination_name"])

	f.its.getErr = common.ErrInvalidID
	rec = f.do(http.MethodGet, "/api/itinerary/zzz", "", true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid itinerary ID format", decode(t, rec)["error"])

	f.its.getErr = common.ErrNotFound
	rec = f.do(http.MethodGet, "/api/itinerary/it-9", "", true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Itinerary not found", decode(t, rec)["error"])
}

func TestDeleteItinerary(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodDelete, "/api/itinerary/it-1", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Itinerary deleted successfully", decode(t, rec)["message"])

	f.its.delErr = common.ErrNotFound
	rec = f.do(http.MethodDelete, "/api/itinerary/it-1", "", true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Itinerary not found or you don't have permission to delete it", decode(t, rec)["error"])

	f.its.delErr = errors.New("db")
	rec = f.do(http.MethodDelete, "/api/itinerary/it-1", "", true)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to delete itinerary", decode(t, rec)["error"])
}

func TestExportItinerary(t *testing.T) {
	f := newFixture(t)

	f.exporter.err = common.ErrExportDisabled
	rec := f.do(http.MethodGet, "/api/itinerary/it-1/export", "", true)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	f.exporter.err = common.ErrNotFound
	rec = f.do(http.MethodGet, "/api/itinerary/it-1/export", "", true)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	f.exporter.err = nil
	f.exporter.exp = &services.Export{Key: "exports/k.json", URL: "https://s3/k?sig"}
	rec = f.do(http.MethodGet, "/api/itinerary/it-1/export", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://s3/k?sig", decode(t, rec)["url"])
}

func TestSubscriptionEndpoints(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/api/subscription-plans", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	plans := decode(t, rec)["plans"].([]any)
	assert.Len(t, plans, 2)

	rec = f.do(http.MethodGet, "/api/subscription-status", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 20, decode(t, rec)["chat_messages_remaining"])

	rec = f.do(http.MethodPost, "/api/upgrade-subscription", `{"session_id":"cs_paid"}`, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "cs_paid", f.billing.gotSession)
	sub := decode(t, rec)["subscription"].(map[string]any)
	assert.Equal(t, true, sub["has_premium_subscription"])
	assert.EqualValues(t, -1, sub["chat_messages_remaining"])

	rec = f.do(http.MethodPost, "/api/downgrade-subscription", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "free", decode(t, rec)["subscription"].(map[string]any)["subscription_status"])

	f.accounts.changeErr = errors.New("db")
	rec = f.do(http.MethodPost, "/api/downgrade-subscription", "", true)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestUpgradeRequiresVerifiedPayment(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/api/upgrade-subscription", "", true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, f.billing.gotSession)

	rec = f.do(http.MethodPost, "/api/upgrade-subscription", `{}`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	f.billing.confirmErr = common.ErrPaymentNotVerified
	rec = f.do(http.MethodPost, "/api/upgrade-subscription", `{"session_id":"cs_unpaid"}`, true)
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	assert.Equal(t, "Payment not verified", decode(t, rec)["error"])

	f.billing.confirmErr = common.ErrBillingDisabled
	rec = f.do(http.MethodPost, "/api/upgrade-subscription", `{"session_id":"cs_1"}`, true)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = f.do(http.MethodPost, "/api/upgrade-subscription", `{"session_id":"cs_1"}`, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateCheckoutSession(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/api/create-checkout-session", "", true)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	f.billing.checkout = &services.Checkout{SessionID: "cs_1", URL: "https://checkout.stripe.com/cs_1"}
	rec = f.do(http.MethodPost, "/api/create-checkout-session", `{"plan_id":"premium_yearly"}`, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "premium_yearly", f.billing.gotPlan)
	assert.Equal(t, "https://checkout.stripe.com/cs_1", decode(t, rec)["url"])
}

func TestStripeWebhook(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/stripe/webhook", strings.NewReader(`{"id":"evt_1"}`))
	req.Header.Set("Stripe-Signature", "t=1,v1=abc")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `{"id":"evt_1"}`, string(f.billing.gotPayload))
	assert.Equal(t, "t=1,v1=abc", f.billing.gotSignature)

	f.billing.hookErr = common.ErrInvalidSignature
	rec = f.do(http.MethodPost, "/api/stripe/webhook", `{"id":"evt_2"}`, false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	f.billing.hookErr = errors.New("db down")
	rec = f.do(http.MethodPost, "/api/stripe/webhook", `{"id":"evt_3"}`, false)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
