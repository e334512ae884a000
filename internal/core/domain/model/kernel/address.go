package kernel

import (
	"errors"
	"fmt"

	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

// ErrAddressIsNotConstructed is returned when attempting to use an improperly
// initialized Address. Addresses must be created via NewAddress.
var ErrAddressIsNotConstructed = errs.NewValueIsRequiredError(
	"address must be created via NewAddress constructor")

// Address is the immutable ship-to destination of an order. The zero value is
// invalid and fails validation; use NewAddress to create instances.
//
// Example:
//
//	addr, err := kernel.NewAddress("Jane Doe", "1 Main St", "Springfield", "62701", "US")
//	if err != nil {
//	    // handle validation error
//	}
type Address struct { //nolint:recvcheck //using for validation
	recipientName string
	addressLine   string
	city          string
	postalCode    string
	countryCode   string

	guard guard.ConstructorGuard
}

// NewAddress creates a validated Address. All fields are required; the
// country code must be a two-letter ISO 3166-1 alpha-2 code.
func NewAddress(recipientName, addressLine, city, postalCode, countryCode string) (Address, error) {
	addr := Address{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		addr.setRecipientName(recipientName),
		addr.setAddressLine(addressLine),
		addr.setCity(city),
		addr.setPostalCode(postalCode),
		addr.setCountryCode(countryCode),
	); err != nil {
		return Address{}, err
	}

	return addr, nil
}

// Validate checks that the Address was constructed via NewAddress.
func (a Address) Validate() error {
	return a.guard.Validate(ErrAddressIsNotConstructed)
}

// RecipientName returns the addressee.
func (a Address) RecipientName() string {
	return a.recipientName
}

// AddressLine returns the street address line.
func (a Address) AddressLine() string {
	return a.addressLine
}

// City returns the city or locality.
func (a Address) City() string {
	return a.city
}

// PostalCode returns the postal code.
func (a Address) PostalCode() string {
	return a.postalCode
}

// CountryCode returns the two-letter ISO 3166-1 country code.
func (a Address) CountryCode() string {
	return a.countryCode
}

// String returns a single-line representation for logs and debugging.
func (a Address) String() string {
	return fmt.Sprintf("%s, %s, %s %s, %s", a.recipientName, a.addressLine, a.city, a.postalCode, a.countryCode)
}

// IsEqual compares two addresses field by field. Both must be properly
// constructed for the comparison to succeed.
func (a Address) IsEqual(other Address) (bool, error) {
	if err := errors.Join(a.Validate(), other.Validate()); err != nil {
		return false, err
	}

	return a == other, nil
}

// Note: We intentionally use pointer receivers for these private setters
// while other methods use value receivers, to enable self-encapsulated
// validation during object construction.
func (a *Address) setRecipientName(recipientName string) error {
	if recipientName == "" {
		return errs.NewValueIsRequiredError("recipientName")
	}

	a.recipientName = recipientName
	return nil
}

func (a *Address) setAddressLine(addressLine string) error {
	if addressLine == "" {
		return errs.NewValueIsRequiredError("addressLine")
	}

	a.addressLine = addressLine
	return nil
}

func (a *Address) setCity(city string) error {
	if city == "" {
		return errs.NewValueIsRequiredError("city")
	}

	a.city = city
	return nil
}

func (a *Address) setPostalCode(postalCode string) error {
	if postalCode == "" {
		return errs.NewValueIsRequiredError("postalCode")
	}

	a.postalCode = postalCode
	return nil
}

func (a *Address) setCountryCode(countryCode string) error {
	if len(countryCode) != 2 {
		return errs.NewValueIsInvalidError("countryCode")
	}

	a.countryCode = countryCode
	return nil
}
