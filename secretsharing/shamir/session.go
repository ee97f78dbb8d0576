// Copyright 2024 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package shamir

import (
	"fmt"
	"sort"

	"github.com/GoogleCloudPlatform/sharekeeper/secretsharing/internal/polynomial"
	"github.com/GoogleCloudPlatform/sharekeeper/secretsharing/secrets"
	glog "github.com/golang/glog"
)

// Status is a snapshot of a Session.
type Status struct {
	ID              string
	Threshold       int
	TotalShares     int
	Collected       int
	SharesNeeded    int
	CanReconstruct  bool
	IsReconstructed bool
	// ShareIndices are the participant numbers collected so far, ascending.
	ShareIndices []int
}

// Session collects share sets from participants until the secret can be reconstructed.
// It is not safe for concurrent use.
type Session struct {
	threshold int
	first     *secrets.ShareSetMetadata
	sets      []secrets.ShareSet
	secret    []byte
}

// NewSession returns an empty session for a threshold-of-n split.
func NewSession(threshold int) (*Session, error) {
	if threshold < polynomial.MinThreshold || threshold > polynomial.MaxPoints {
		return nil, fmt.Errorf("%w: threshold must be in [%d, %d], got %d", secrets.ErrInvalidInput, polynomial.MinThreshold, polynomial.MaxPoints, threshold)
	}
	return &Session{threshold: threshold}, nil
}

// AddShareSet adds one participant's share set. Sets that are invalid, belong to another
// split, or repeat a participant or x-coordinate already collected are rejected and leave
// the session unchanged.
func (s *Session) AddShareSet(set secrets.ShareSet) error {
	if err := s.admit(set); err != nil {
		glog.Warningf("Rejected share set %d: %v", set.Metadata.ShareIndex, err)
		return err
	}
	md := set.Metadata
	if s.first == nil {
		s.first = &md
	}
	s.sets = append(s.sets, set)
	glog.V(1).Infof("Session %s: collected %d of %d share sets", md.ID, len(s.sets), s.threshold)
	return nil
}

func (s *Session) admit(set secrets.ShareSet) error {
	if err := set.Validate(); err != nil {
		return err
	}
	md := set.Metadata
	if md.Threshold != s.threshold {
		return fmt.Errorf("%w: share set has threshold %d, session expects %d", secrets.ErrInconsistentParameters, md.Threshold, s.threshold)
	}
	if s.first != nil && !sameSplit(*s.first, md) {
		return fmt.Errorf("%w: share set %d belongs to split %s, session is collecting %s", secrets.ErrInconsistentParameters, md.ShareIndex, md.ID, s.first.ID)
	}
	for _, have := range s.sets {
		if have.Metadata.ShareIndex == md.ShareIndex || have.X() == set.X() {
			return fmt.Errorf("%w: participant %d (x = %d) already added", secrets.ErrDuplicateShare, md.ShareIndex, set.X())
		}
	}
	return nil
}

// SharesNeeded returns how many more share sets are required.
func (s *Session) SharesNeeded() int {
	return max(0, s.threshold-len(s.sets))
}

// CanReconstruct reports whether threshold share sets have been collected.
func (s *Session) CanReconstruct() bool {
	return len(s.sets) >= s.threshold
}

// IsReconstructed reports whether Secret has succeeded since the last Reset.
func (s *Session) IsReconstructed() bool {
	return s.secret != nil
}

// Secret reconstructs the secret, or returns the cached result of an earlier call. The
// returned slice is a copy.
func (s *Session) Secret() ([]byte, error) {
	if !s.CanReconstruct() {
		return nil, fmt.Errorf("%w: have %d share sets, need %d", secrets.ErrInsufficientShares, len(s.sets), s.threshold)
	}
	if s.secret == nil {
		secret, err := ReconstructFromShareSets(s.sets)
		if err != nil {
			return nil, err
		}
		s.secret = secret
	}
	return append([]byte(nil), s.secret...), nil
}

// SecretString returns Secret decoded as UTF-8.
func (s *Session) SecretString() (string, error) {
	b, err := s.Secret()
	if err != nil {
		return "", err
	}
	defer secrets.Wipe(b)
	return DecodeString(b)
}

// Status returns a snapshot of the session.
func (s *Session) Status() Status {
	st := Status{
		Threshold:       s.threshold,
		Collected:       len(s.sets),
		SharesNeeded:    s.SharesNeeded(),
		CanReconstruct:  s.CanReconstruct(),
		IsReconstructed: s.IsReconstructed(),
		ShareIndices:    make([]int, 0, len(s.sets)),
	}
	if s.first != nil {
		st.ID = s.first.ID
		st.TotalShares = s.first.TotalShares
	}
	for _, set := range s.sets {
		st.ShareIndices = append(st.ShareIndices, set.Metadata.ShareIndex)
	}
	sort.Ints(st.ShareIndices)
	return st
}

// Reset discards all collected share sets and wipes the cached secret.
func (s *Session) Reset() {
	secrets.Wipe(s.secret)
	s.secret = nil
	s.sets = nil
	s.first = nil
}
