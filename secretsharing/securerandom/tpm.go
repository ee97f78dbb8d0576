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

package securerandom

import (
	"fmt"
	"io"
	"sync"

	"github.com/google/go-tpm/tpm2"
	"github.com/google/go-tpm/tpm2/transport"
	"github.com/google/go-tpm/tpmutil"
)

// DefaultTPMDevice is the Linux TPM 2.0 resource manager device.
const DefaultTPMDevice = "/dev/tpmrm0"

// TPM2 GetRandom returns at most a digest worth of bytes per command.
const tpmMaxRequest = 32

// TPMEntropy is an entropy reader backed by TPM2_GetRandom. Pass it to NewFromReader.
type TPMEntropy struct {
	mu  sync.Mutex
	tpm transport.TPMCloser
}

var _ io.ReadCloser = (*TPMEntropy)(nil)

// OpenTPMEntropy opens the TPM at device.
func OpenTPMEntropy(device string) (*TPMEntropy, error) {
	if device == "" {
		device = DefaultTPMDevice
	}
	rwc, err := tpmutil.OpenTPM(device)
	if err != nil {
		return nil, fmt.Errorf("failed to open TPM device %s: %v", device, err)
	}
	return &TPMEntropy{tpm: transport.FromReadWriteCloser(rwc)}, nil
}

// NewTPMEntropy wraps an already open TPM connection, such as a simulator.
func NewTPMEntropy(rwc io.ReadWriteCloser) *TPMEntropy {
	return &TPMEntropy{tpm: transport.FromReadWriteCloser(rwc)}
}

// Read fills p with TPM generated random bytes.
func (t *TPMEntropy) Read(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.tpm == nil {
		return 0, fmt.Errorf("TPM entropy source is closed")
	}
	n := 0
	for n < len(p) {
		want := len(p) - n
		if want > tpmMaxRequest {
			want = tpmMaxRequest
		}
		getRandom := tpm2.GetRandom{BytesRequested: uint16(want)}
		rsp, err := getRandom.Execute(t.tpm)
		if err != nil {
			return n, fmt.Errorf("TPM2_GetRandom failed: %v", err)
		}
		if len(rsp.RandomBytes.Buffer) == 0 {
			return n, fmt.Errorf("TPM2_GetRandom returned no bytes")
		}
		n += copy(p[n:], rsp.RandomBytes.Buffer)
	}
	return n, nil
}

// Close closes the TPM connection.
func (t *TPMEntropy) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.tpm == nil {
		return nil
	}
	err := t.tpm.Close()
	t.tpm = nil
	return err
}
