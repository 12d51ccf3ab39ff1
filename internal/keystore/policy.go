package keystore

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/pairjournal/internal/common"
)

// Op is a key-store operation subject to the access policy.
type Op int

const (
	OpGet Op = iota
	OpPut
	OpDelete
)

func (o Op) String() string {
	switch o {
	case OpGet:
		return "get"
	case OpPut:
		return "put"
	case OpDelete:
		return "delete"
	default:
		return fmt.Sprintf("op(%d)", int(o))
	}
}

// Authorize decides whether accountID may perform op on path.
//
// An account owns accounts/{id}/... and pending_shared_keys/{id}. Any
// authenticated account may read other profiles, partner links and the email
// index, write or delete another account's partner link, and write (but not
// read or delete) another account's pending shared key. Credentials and email
// index writes are never reachable through this policy.
func Authorize(accountID string, op Op, path string) error {
	if accountID == "" {
		return common.ErrUnauthorized
	}
	if err := Validate(path); err != nil {
		return err
	}

	segs := strings.Split(path, "/")
	deny := fmt.Errorf("%w: %s %s", common.ErrForbidden, op, path)

	switch segs[0] {
	case AccountsRoot:
		if len(segs) != 3 {
			return deny
		}
		owner, leaf := segs[1], segs[2]
		if owner == accountID {
			return nil
		}
		switch leaf {
		case profileLeaf:
			if op == OpGet {
				return nil
			}
		case partnerLinkLeaf:
			return nil
		}
		return deny

	case PendingRoot:
		if len(segs) != 2 {
			return deny
		}
		if segs[1] == accountID || op == OpPut {
			return nil
		}
		return deny

	case EmailsRoot:
		if len(segs) == 2 && op == OpGet {
			return nil
		}
		return deny
	}

	return deny
}
