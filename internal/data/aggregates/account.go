package aggregates

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	domainagg "github.com/yungbote/marketplace-backend/internal/domain/aggregates"
	types "github.com/yungbote/marketplace-backend/internal/domain/marketplace"
	"github.com/yungbote/marketplace-backend/internal/pkg/dbctx"
)

type accountAggregate struct {
	deps MarketplaceDeps
}

func NewAccountAggregate(deps MarketplaceDeps) domainagg.AccountAggregate {
	return &accountAggregate{deps: deps.withDefaults()}
}

func (a *accountAggregate) Contract() domainagg.Contract {
	return domainagg.AccountAggregateContract
}

func (a *accountAggregate) RegisterClient(ctx context.Context, in domainagg.RegisterAccountInput) (domainagg.AccountResult, error) {
	const op = "Marketplace.Account.RegisterClient"
	var out domainagg.AccountResult
	username, err := types.NewUsername(in.Username)
	if err != nil {
		return out, err
	}
	c, err := types.NewClient(username)
	if err != nil {
		return out, err
	}
	err = executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		if err := a.ensureUsernameFree(dbc, domainagg.AccountClient, username, uuid.Nil); err != nil {
			return err
		}
		if _, err := a.deps.Repos.Clients.Create(dbc, []*types.Client{c}); err != nil {
			return err
		}
		if err := a.deps.Repos.Carts.Create(dbc, c.Cart); err != nil {
			return err
		}
		out = clientResult(c)
		return nil
	})
	if err == nil {
		a.deps.Base.Log.Info("client registered", "client_id", c.ID.String())
	}
	return out, err
}

func (a *accountAggregate) RegisterSeller(ctx context.Context, in domainagg.RegisterAccountInput) (domainagg.AccountResult, error) {
	const op = "Marketplace.Account.RegisterSeller"
	var out domainagg.AccountResult
	username, err := types.NewUsername(in.Username)
	if err != nil {
		return out, err
	}
	s, err := types.NewSeller(username)
	if err != nil {
		return out, err
	}
	err = executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		if err := a.ensureUsernameFree(dbc, domainagg.AccountSeller, username, uuid.Nil); err != nil {
			return err
		}
		if _, err := a.deps.Repos.Sellers.Create(dbc, []*types.Seller{s}); err != nil {
			return err
		}
		out = sellerResult(s)
		return nil
	})
	if err == nil {
		a.deps.Base.Log.Info("seller registered", "seller_id", s.ID.String())
	}
	return out, err
}

func (a *accountAggregate) ChangeUsername(ctx context.Context, in domainagg.ChangeUsernameInput) (domainagg.ChangeUsernameResult, error) {
	const op = "Marketplace.Account.ChangeUsername"
	var out domainagg.ChangeUsernameResult
	if in.ID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing account id", nil)
	}
	username, err := types.NewUsername(in.Username)
	if err != nil {
		return out, err
	}
	err = executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		st := newStore(dbc, a.deps, op)
		switch in.Kind {
		case domainagg.AccountClient:
			c, err := st.client(in.ID)
			if err != nil {
				return err
			}
			changed, err := c.ChangeUsername(username)
			if err != nil {
				return err
			}
			out = domainagg.ChangeUsernameResult{ID: c.ID, Username: c.Username.String(), Changed: changed}
			if !changed {
				return nil
			}
			if err := a.ensureUsernameFree(dbc, in.Kind, username, c.ID); err != nil {
				return err
			}
			return st.saveClient(c)
		case domainagg.AccountSeller:
			s, err := st.seller(in.ID, false)
			if err != nil {
				return err
			}
			changed, err := s.ChangeUsername(username)
			if err != nil {
				return err
			}
			out = domainagg.ChangeUsernameResult{ID: s.ID, Username: s.Username.String(), Changed: changed}
			if !changed {
				return nil
			}
			if err := a.ensureUsernameFree(dbc, in.Kind, username, s.ID); err != nil {
				return err
			}
			return st.saveSeller(s)
		default:
			return domainagg.NewError(domainagg.CodeValidation, op, fmt.Sprintf("unknown account kind %q", in.Kind), nil)
		}
	})
	return out, err
}

func (a *accountAggregate) TopUp(ctx context.Context, in domainagg.TopUpInput) (domainagg.AccountResult, error) {
	const op = "Marketplace.Account.TopUp"
	var out domainagg.AccountResult
	amount, err := types.NewMoney(in.Amount)
	if err != nil {
		return out, err
	}
	err = executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		st := newStore(dbc, a.deps, op)
		c, err := st.client(in.ClientID)
		if err != nil {
			return err
		}
		if err := c.AddBalance(amount); err != nil {
			return err
		}
		if err := st.saveClient(c); err != nil {
			return err
		}
		out = clientResult(c)
		return nil
	})
	return out, err
}

// ensureUsernameFree reports a conflict when another account of the same
// kind already holds username. The unique index backs this up under races.
func (a *accountAggregate) ensureUsernameFree(dbc dbctx.Context, kind domainagg.AccountKind, username types.Username, self uuid.UUID) error {
	var holder uuid.UUID
	switch kind {
	case domainagg.AccountClient:
		row, err := a.deps.Repos.Clients.GetByUsername(dbc, username.String())
		if err != nil {
			return err
		}
		if row != nil {
			holder = row.ID
		}
	case domainagg.AccountSeller:
		row, err := a.deps.Repos.Sellers.GetByUsername(dbc, username.String())
		if err != nil {
			return err
		}
		if row != nil {
			holder = row.ID
		}
	}
	if holder != uuid.Nil && holder != self {
		return domainagg.NewError(domainagg.CodeConflict, "Marketplace.Account.Username", fmt.Sprintf("username %q is taken", username.String()), nil)
	}
	return nil
}

func clientResult(c *types.Client) domainagg.AccountResult {
	return domainagg.AccountResult{
		Kind:     domainagg.AccountClient,
		ID:       c.ID,
		Username: c.Username.String(),
		Balance:  c.Balance.Decimal(),
	}
}

func sellerResult(s *types.Seller) domainagg.AccountResult {
	return domainagg.AccountResult{
		Kind:     domainagg.AccountSeller,
		ID:       s.ID,
		Username: s.Username.String(),
		Balance:  s.Balance.Decimal(),
	}
}
