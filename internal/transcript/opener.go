package transcript

import (
	"io"
	"time"

	"github.com/dstrib/GPT4-Biomed-Assessment/internal/domain"
)

// Opener opens Reporters that share one header and console.
type Opener struct {
	Header  Header
	Console io.Writer
	Now     func() time.Time
}

// Open starts a new transcript at path.
func (o Opener) Open(path string, initial domain.Conversation) (*Reporter, error) {
	now := o.Now
	if now == nil {
		now = time.Now
	}
	return Open(path, o.Header, now(), initial, o.Console)
}
