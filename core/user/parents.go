package user

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/Jaimin17/Zenith-School-Backend/core"
)

func (svc *service) ListParents(ctx context.Context, p Principal, filter ParentFilter, ordering []core.DBOrdering) ([]Parent, core.Pagination, error) {
	filter.Clean()
	parents, total, err := svc.repo.QueryParents(ctx, p.Scope(), filter, ordering, svc.perPage())
	if err != nil {
		return nil, core.Pagination{}, err
	}
	return parents, core.NewPagination(total, filter.Page, svc.perPage()), nil
}

func (svc *service) CountParents(ctx context.Context) (int64, error) {
	return svc.repo.CountParents(ctx)
}

func (svc *service) GetParent(ctx context.Context, p Principal, id string) (Parent, error) {
	return svc.repo.GetParent(ctx, p.Scope(), id)
}

func (svc *service) CreateParent(ctx context.Context, np NewParent) (Parent, error) {
	hash, err := HashPassword(np.Password)
	if err != nil {
		return Parent{}, errors.Wrap(err, "hashing password")
	}
	p := Parent{
		Person: Person{
			Username:  np.Username,
			FirstName: np.FirstName,
			LastName:  np.LastName,
			Email:     np.Email,
			Address:   np.Address,
			Password:  hash,
			CreatedAt: time.Now().UTC(),
		},
		Phone: np.Phone,
	}

	err = svc.tx.Transact(ctx, func(tx core.DBExecutor) error {
		if err := svc.repo.CheckUniqueness(ctx, RoleParent, p.Username, p.Email, p.Phone, "", tx); err != nil {
			return err
		}
		var err error
		p, err = svc.repo.CreateParent(ctx, p, tx)
		return err
	})
	return p, err
}

func (svc *service) UpdateParent(ctx context.Context, id string, up UpdateParent) (Parent, error) {
	var p Parent
	err := svc.tx.Transact(ctx, func(tx core.DBExecutor) error {
		var err error
		if p, err = svc.repo.GetParent(ctx, AdminScope{}, id, tx); err != nil {
			return err
		}
		if err = svc.repo.CheckUniqueness(ctx, RoleParent, up.Username, up.Email, up.Phone, id, tx); err != nil {
			return err
		}

		p.Username = up.Username
		p.FirstName = up.FirstName
		p.LastName = up.LastName
		p.Email = up.Email
		p.Address = up.Address
		p.Phone = up.Phone
		if up.Password != "" {
			if p.Password, err = HashPassword(up.Password); err != nil {
				return errors.Wrap(err, "hashing password")
			}
		}
		p, err = svc.repo.UpdateParent(ctx, p, tx)
		return err
	})
	return p, err
}

// DeleteParent soft-deletes a parent and unlinks their students.
func (svc *service) DeleteParent(ctx context.Context, id string) (ParentDeleteResult, error) {
	var res ParentDeleteResult
	err := svc.tx.Transact(ctx, func(tx core.DBExecutor) error {
		if _, err := svc.repo.GetParent(ctx, AdminScope{}, id, tx); err != nil {
			return err
		}
		var err error
		res, err = svc.repo.DeleteParent(ctx, id, tx)
		return err
	})
	return res, err
}
