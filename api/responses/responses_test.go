package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/packfinderz-settlement/pkg/errors"
	"github.com/angelmondragon/packfinderz-settlement/pkg/logger"
)

func TestWriteSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	WriteSuccessStatus(w, http.StatusCreated, map[string]string{"status": "approved"})

	require.Equal(t, http.StatusCreated, w.Code)
	var body SuccessEnvelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	require.Equal(t, "approved", body.Data.(map[string]any)["status"])
}

func TestWriteErrorMapsTypedError(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{pkgerrors.New(pkgerrors.CodeValidation, "bad carrier"), http.StatusBadRequest, "VALIDATION_ERROR"},
		{pkgerrors.New(pkgerrors.CodeForbidden, "admin access required"), http.StatusForbidden, "FORBIDDEN"},
		{pkgerrors.New(pkgerrors.CodeInsufficientFunds, "insufficient available balance"), http.StatusUnprocessableEntity, "INSUFFICIENT_FUNDS"},
		{pkgerrors.New(pkgerrors.CodeSignatureInvalid, "bad signature"), http.StatusBadRequest, "SIGNATURE_INVALID"},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		WriteError(context.Background(), logger.Nop(), w, tc.err)
		require.Equal(t, tc.status, w.Code, tc.code)

		var body ErrorEnvelope
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		require.Equal(t, tc.code, body.Error.Code)
	}
}

func TestWriteErrorHidesInternalMessage(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(context.Background(), nil, w, errors.New("db password leaked"))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	var body ErrorEnvelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	require.Equal(t, "INTERNAL_ERROR", body.Error.Code)
	require.NotContains(t, body.Error.Message, "password")
}
