package devauthn

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateEchoesChallenge(t *testing.T) {
	authn := &Authenticator{}
	require.True(t, authn.Supported())

	resp, err := authn.Create(context.Background(), protocol.PublicKeyCredentialCreationOptions{
		Challenge: protocol.URLEncodedBase64("challenge-bytes"),
	})
	require.NoError(t, err)
	assert.Equal(t, "dev-credential", resp.ID)

	var clientData map[string]string
	require.NoError(t, json.Unmarshal(resp.AttestationResponse.ClientDataJSON, &clientData))
	assert.Equal(t, "webauthn.create", clientData["type"])
	assert.Equal(t, "Y2hhbGxlbmdlLWJ5dGVz", clientData["challenge"])
	assert.Equal(t, "http://localhost:3000", clientData["origin"])
}

func TestGetEchoesChallengeAndOrigin(t *testing.T) {
	authn := &Authenticator{CredentialID: "cred-42", Origin: "https://shop.example.com"}

	resp, err := authn.Get(context.Background(), protocol.PublicKeyCredentialRequestOptions{
		Challenge: protocol.URLEncodedBase64("other"),
	})
	require.NoError(t, err)
	assert.Equal(t, "cred-42", resp.ID)

	var clientData map[string]string
	require.NoError(t, json.Unmarshal(resp.AssertionResponse.ClientDataJSON, &clientData))
	assert.Equal(t, "webauthn.get", clientData["type"])
	assert.Equal(t, "https://shop.example.com", clientData["origin"])
}
