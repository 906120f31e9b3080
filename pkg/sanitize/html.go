package sanitize

import (
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	htmlPolicyOnce sync.Once
	htmlPolicy     *bluemonday.Policy
)

// HTMLPolicy returns the shared policy for rich text fields: user generated
// content markup plus class attributes.
func HTMLPolicy() *bluemonday.Policy {
	htmlPolicyOnce.Do(func() {
		policy := bluemonday.UGCPolicy()
		policy.AllowAttrs("class").Globally()
		htmlPolicy = policy
	})
	return htmlPolicy
}
