// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package rule

import (
	"fmt"

	"github.com/google/uuid"
)

// Domain is the kind of access a rule group regulates.
type Domain uint8

const (
	// Device regulates use of the machine as a whole.
	Device Domain = 1
	// Account regulates opening login sessions.
	Account Domain = 2
	// Internet regulates network access.
	Internet Domain = 3
)

// Domains lists every domain in display order.
var Domains = []Domain{Device, Account, Internet}

func (d Domain) String() string {
	switch d {
	case Device:
		return "device"
	case Account:
		return "account"
	case Internet:
		return "internet"
	default:
		return fmt.Sprintf("Domain(%d)", uint8(d))
	}
}

// Valid reports whether d is a known domain.
func (d Domain) Valid() bool { return d >= Device && d <= Internet }

// ParseDomain maps a domain name to its value.
func ParseDomain(name string) (Domain, error) {
	for _, domain := range Domains {
		if domain.String() == name {
			return domain, nil
		}
	}
	return 0, fmt.Errorf("unknown domain %q (want device, account, or internet)", name)
}

// Locator names one rule group: a user's rules in one domain.
type Locator struct {
	UserID uuid.UUID
	Domain Domain
}

func (l Locator) String() string { return l.UserID.String() + "/" + l.Domain.String() }
