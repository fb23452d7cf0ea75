// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package rule

// CrossGroupInfo counts rules across every group in the process.
// TotalRuleCount always equals the sum of all group sizes; only the
// lifecycle procedures and user deletion change it.
type CrossGroupInfo struct {
	TotalRuleCount int
	GlobalCapacity int
}

// IsFull reports whether no further rule may be added anywhere.
func (c *CrossGroupInfo) IsFull() bool { return c.TotalRuleCount >= c.GlobalCapacity }

func (c *CrossGroupInfo) increment() { c.TotalRuleCount++ }

func (c *CrossGroupInfo) decrement() {
	if c.TotalRuleCount > 0 {
		c.TotalRuleCount--
	}
}

// Release subtracts the rules of a removed owner, such as a deleted
// user, saturating at zero.
func (c *CrossGroupInfo) Release(count int) {
	c.TotalRuleCount = max(c.TotalRuleCount-count, 0)
}

// Restore adds rules loaded from storage. It is not capped by
// GlobalCapacity.
func (c *CrossGroupInfo) Restore(count int) { c.TotalRuleCount += count }
