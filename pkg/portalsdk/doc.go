/*
Package portalsdk is a client for the Harbor investor portal onboarding API.

# Overview

Client covers the public endpoints: the account creation flow, the token
endpoint, health checks and key discovery. Session wraps an operator's tokens
and refreshes them as they expire.

	client := portalsdk.NewClient("https://portal.example.com")

	prefill, err := client.VerifyAccountToken(ctx, token)
	sent, err := client.SendVerificationCode(ctx, token)
	created, err := client.CreateAccount(ctx, portalsdk.CreateAccountRequest{
		Token:            token,
		VerificationCode: code,
		Password:         password,
	})

Operators authenticate with a password and then act on their fund:

	session, err := client.AuthenticateWithPassword(ctx, email, password, fundID)
	invite, err := session.SendAccountInvite(ctx, portalsdk.SendInviteRequest{
		KYCApplicationID: appID,
		FundID:           fundID,
	})

# Errors

Non-2xx responses are returned as *APIError carrying the status code, the
error code and the human readable description:

	var apiErr *portalsdk.APIError
	if errors.As(err, &apiErr) && apiErr.Code == portalsdk.ErrorCodeInvalidCode {
		fmt.Println(apiErr.Description) // "invalid code, 2 attempts remaining"
	}

The same type is used by the server to write error responses.
*/
package portalsdk
