package database

import "time"

func (s *State) Update(nextIndex, lastIndex uint64) {
	s.NextDBIndex = nextIndex
	s.LastChainIndex = lastIndex
	s.Updated = time.Now()
}

// Last ingested ledger sequence, 0 when nothing was ingested yet
func (s *State) LastIngested() uint64 {
	if s.NextDBIndex == 0 {
		return 0
	}
	return s.NextDBIndex - 1
}

func (v *Vault) Deactivate() {
	v.Active = false
}
