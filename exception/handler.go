///////////////////////////////////////////////////////////////////////////////
// Copyright © 2020 xx network SEZC                                          //
//                                                                           //
// Use of this source code is governed by a license that can be found in the //
// LICENSE file                                                              //
///////////////////////////////////////////////////////////////////////////////

package exception

// handler.go contains the Handler object, which keeps the last failure
// reported by a caller and optionally mirrors it to a recovery file so it
// survives a restart

import (
	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"gitlab.com/xx_network/primitives/utils"
	"gopkg.in/yaml.v2"
	"os"
	"sync"
	"time"
)

// Report is a single recorded failure
type Report struct {
	Function  string    `yaml:"function"`
	Message   string    `yaml:"message"`
	Code      Code      `yaml:"code"`
	Timestamp time.Time `yaml:"timestamp"`
}

// Handler is the last-error slot. It is constructed explicitly and passed to
// the code that needs it, there is no process global instance.
type Handler struct {
	errLck       sync.Mutex
	last         *Report
	recoveryPath string
}

// NewHandler creates an empty Handler. If recoveryPath is not empty every
// recorded report is also written to that file.
func NewHandler(recoveryPath string) *Handler {
	return &Handler{recoveryPath: recoveryPath}
}

// Recover builds a Handler from a previously written recovery file. The file
// is removed once it has been read. A missing file yields an empty Handler.
func Recover(recoveryPath string) (*Handler, error) {
	h := NewHandler(recoveryPath)
	if recoveryPath == "" || !utils.Exists(recoveryPath) {
		return h, nil
	}

	data, err := utils.ReadFile(recoveryPath)
	if err != nil {
		return nil, errors.WithMessage(err, "Failed to read recovered error")
	}

	r := &Report{}
	if err = yaml.Unmarshal(data, r); err != nil {
		return nil, errors.WithMessage(err, "Failed to unmarshal recovered error")
	}

	if err = os.Remove(recoveryPath); err != nil {
		return nil, errors.WithMessage(err, "Failed to remove recovered error file")
	}

	jww.INFO.Printf("Recovered error from %s: %s (%s) in %s", recoveryPath,
		r.Message, r.Code, r.Function)
	h.last = r
	return h, nil
}

// Record stores err as the last failure of function. A nil error is ignored.
// The recorded Report is returned.
func (h *Handler) Record(function string, err error) *Report {
	if err == nil {
		return nil
	}

	r := &Report{
		Function:  function,
		Message:   err.Error(),
		Code:      CodeOf(err),
		Timestamp: time.Now(),
	}

	h.errLck.Lock()
	defer h.errLck.Unlock()
	h.last = r

	jww.ERROR.Printf("%s failed with %s: %s", function, r.Code, r.Message)

	if h.recoveryPath != "" {
		if werr := h.write(r); werr != nil {
			jww.ERROR.Printf("Could not write recovery file %s: %+v",
				h.recoveryPath, werr)
		}
	}

	return r
}

// Last returns a copy of the last recorded failure
func (h *Handler) Last() (Report, bool) {
	h.errLck.Lock()
	defer h.errLck.Unlock()
	if h.last == nil {
		return Report{}, false
	}
	return *h.last, true
}

// Clear empties the slot and removes the recovery file if there is one
func (h *Handler) Clear() {
	h.errLck.Lock()
	defer h.errLck.Unlock()
	h.last = nil
	if h.recoveryPath != "" && utils.Exists(h.recoveryPath) {
		if err := os.Remove(h.recoveryPath); err != nil {
			jww.WARN.Printf("Could not remove recovery file %s: %+v",
				h.recoveryPath, err)
		}
	}
}

func (h *Handler) write(r *Report) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return err
	}
	return utils.WriteFile(h.recoveryPath, data, utils.FilePerms, utils.DirPerms)
}
