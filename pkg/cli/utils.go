package cli

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/keybase/dbus"
	"github.com/keybase/go-keychain/secretservice"
)

const (
	service        = "preclear"
	collection     = secretservice.DefaultCollection
	keychainPrefix = "keychain:"
)

// FillKeychainValues replaces every string field of args (including fields
// of nested structs) whose value is "keychain:<element>" with the secret
// stored under that element in the Secret Service keychain.
func FillKeychainValues[T any](args *T) error {
	var kc *keychain
	return fillValues(reflect.ValueOf(args).Elem(), func(element string) (string, error) {
		if kc == nil {
			var err error
			kc, err = openKeychain()
			if err != nil {
				return "", fmt.Errorf("init secret service: %w", err)
			}
		}
		return kc.lookup(element)
	})
}

type lookupFunc func(element string) (string, error)

func fillValues(v reflect.Value, lookup lookupFunc) error {
	for i := 0; i < v.NumField(); i++ {
		if !v.Type().Field(i).IsExported() {
			continue
		}
		f := v.Field(i)
		switch f.Kind() {
		case reflect.Struct:
			if err := fillValues(f, lookup); err != nil {
				return err
			}
			continue
		case reflect.Ptr:
			if !f.IsNil() && f.Elem().Kind() == reflect.Struct {
				if err := fillValues(f.Elem(), lookup); err != nil {
					return err
				}
			}
			continue
		case reflect.String:
		default:
			continue
		}

		if !strings.HasPrefix(f.String(), keychainPrefix) {
			continue
		}
		if !f.CanSet() {
			return fmt.Errorf("set value for field %s", v.Type().Field(i).Name)
		}
		secret, err := lookup(strings.TrimPrefix(f.String(), keychainPrefix))
		if err != nil {
			return err
		}
		f.SetString(secret)
	}
	return nil
}

type keychain struct {
	svc     *secretservice.SecretService
	session *secretservice.Session
}

func openKeychain() (*keychain, error) {
	svc, err := secretservice.NewService()
	if err != nil {
		return nil, fmt.Errorf("create keychain service: %w", err)
	}
	if err := svc.Unlock([]dbus.ObjectPath{collection}); err != nil {
		return nil, fmt.Errorf("unlock keychain service: %w", err)
	}
	session, err := svc.OpenSession(secretservice.AuthenticationDHAES)
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	if session == nil {
		return nil, fmt.Errorf("no session")
	}
	return &keychain{svc: svc, session: session}, nil
}

func (k *keychain) lookup(element string) (string, error) {
	items, err := k.svc.SearchCollection(collection, secretservice.Attributes{
		"service": service,
		"element": element,
	})
	if err != nil {
		return "", fmt.Errorf("search keychain element: %w", err)
	}
	if len(items) < 1 {
		return "", fmt.Errorf("keychain element %s not found", element)
	}
	if len(items) > 1 {
		return "", fmt.Errorf("found more than one keychain elements for %s", element)
	}
	secretValue, err := k.svc.GetSecret(items[0], *k.session)
	if err != nil {
		return "", fmt.Errorf("get value from keychain: %w", err)
	}
	return string(secretValue), nil
}
