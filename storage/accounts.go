package storage

import (
	"context"

	"firebase.google.com/go/auth"
)

// Accounts is the identity-provider surface used by the auth routes. The
// Firebase implementation lives on Client; tests substitute a fake.
type Accounts interface {
	// CreateUser registers a new account and returns its uid.
	// Returns ErrEmailExists when the email is already taken.
	CreateUser(ctx context.Context, email, password, displayName string) (string, error)
	// CustomToken mints a token the client can use to sign in directly.
	CustomToken(ctx context.Context, uid string) (string, error)
	// UpdateEmail changes the account's email.
	UpdateEmail(ctx context.Context, uid, email string) error
	// DeleteUser removes the account from the identity provider.
	DeleteUser(ctx context.Context, uid string) error
}

// CreateUser implements Accounts.
func (c *Client) CreateUser(ctx context.Context, email, password, displayName string) (string, error) {
	params := (&auth.UserToCreate{}).
		Email(email).
		Password(password).
		DisplayName(displayName)
	record, err := c.auth.CreateUser(ctx, params)
	if auth.IsEmailAlreadyExists(err) {
		return "", ErrEmailExists
	}
	if err != nil {
		return "", err
	}
	return record.UID, nil
}

// CustomToken implements Accounts.
func (c *Client) CustomToken(ctx context.Context, uid string) (string, error) {
	return c.auth.CustomToken(ctx, uid)
}

// UpdateEmail implements Accounts.
func (c *Client) UpdateEmail(ctx context.Context, uid, email string) error {
	params := (&auth.UserToUpdate{}).Email(email)
	_, err := c.auth.UpdateUser(ctx, uid, params)
	if auth.IsEmailAlreadyExists(err) {
		return ErrEmailExists
	}
	return err
}

// DeleteUser implements Accounts.
func (c *Client) DeleteUser(ctx context.Context, uid string) error {
	return c.auth.DeleteUser(ctx, uid)
}
