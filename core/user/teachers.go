package user

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/Jaimin17/Zenith-School-Backend/core"
)

func (svc *service) ListTeachers(ctx context.Context, p Principal, filter TeacherFilter, ordering []core.DBOrdering) ([]Teacher, core.Pagination, error) {
	filter.Clean()
	teachers, total, err := svc.repo.QueryTeachers(ctx, p.Scope(), filter, ordering, svc.perPage())
	if err != nil {
		return nil, core.Pagination{}, err
	}
	return teachers, core.NewPagination(total, filter.Page, svc.perPage()), nil
}

func (svc *service) CountTeachers(ctx context.Context) (int64, error) {
	return svc.repo.CountTeachers(ctx)
}

func (svc *service) GetTeacher(ctx context.Context, p Principal, id string) (Teacher, error) {
	return svc.repo.GetTeacher(ctx, p.Scope(), id)
}

func (svc *service) checkSubjects(ctx context.Context, ids []string, exec core.DBExecutor) error {
	missing, err := svc.repo.MissingSubjects(ctx, ids, exec)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return core.NewNotFoundError("subject(s) " + strings.Join(missing, ", "))
	}
	return nil
}

func (svc *service) CreateTeacher(ctx context.Context, nt NewTeacher) (Teacher, error) {
	hash, err := HashPassword(nt.Password)
	if err != nil {
		return Teacher{}, errors.Wrap(err, "hashing password")
	}
	t := Teacher{
		Person: Person{
			Username:  nt.Username,
			FirstName: nt.FirstName,
			LastName:  nt.LastName,
			Email:     nt.Email,
			Address:   nt.Address,
			Password:  hash,
			CreatedAt: time.Now().UTC(),
		},
		Phone:     nt.Phone,
		BloodType: nt.BloodType,
		Sex:       nt.Sex,
	}

	err = svc.tx.Transact(ctx, func(tx core.DBExecutor) error {
		if err := svc.repo.CheckUniqueness(ctx, RoleTeacher, t.Username, t.Email, t.Phone, "", tx); err != nil {
			return err
		}
		if err := svc.checkSubjects(ctx, nt.SubjectIDs, tx); err != nil {
			return err
		}
		var err error
		t, err = svc.repo.CreateTeacher(ctx, t, nt.SubjectIDs, tx)
		return err
	})
	return t, err
}

func (svc *service) UpdateTeacher(ctx context.Context, id string, ut UpdateTeacher) (Teacher, error) {
	var t Teacher
	err := svc.tx.Transact(ctx, func(tx core.DBExecutor) error {
		var err error
		if t, err = svc.repo.GetTeacher(ctx, AdminScope{}, id, tx); err != nil {
			return err
		}
		if err = svc.repo.CheckUniqueness(ctx, RoleTeacher, ut.Username, ut.Email, ut.Phone, id, tx); err != nil {
			return err
		}
		if err = svc.checkSubjects(ctx, ut.SubjectIDs, tx); err != nil {
			return err
		}

		t.Username = ut.Username
		t.FirstName = ut.FirstName
		t.LastName = ut.LastName
		t.Email = ut.Email
		t.Address = ut.Address
		t.Phone = ut.Phone
		t.BloodType = ut.BloodType
		t.Sex = ut.Sex
		if ut.Password != "" {
			if t.Password, err = HashPassword(ut.Password); err != nil {
				return errors.Wrap(err, "hashing password")
			}
		}
		t, err = svc.repo.UpdateTeacher(ctx, t, ut.SubjectIDs, tx)
		return err
	})
	return t, err
}

// DeleteTeacher soft-deletes a teacher, unlinking their subjects and soft-deleting their lessons.
// It is refused while the teacher supervises an active class.
func (svc *service) DeleteTeacher(ctx context.Context, id string) (TeacherDeleteResult, error) {
	var res TeacherDeleteResult
	err := svc.tx.Transact(ctx, func(tx core.DBExecutor) error {
		if _, err := svc.repo.GetTeacher(ctx, AdminScope{}, id, tx); err != nil {
			return err
		}
		supervised, err := svc.repo.CountSupervisedClasses(ctx, id, tx)
		if err != nil {
			return err
		}
		if supervised > 0 {
			return ErrSupervisesClass
		}
		res, err = svc.repo.DeleteTeacher(ctx, id, tx)
		return err
	})
	return res, err
}

// canEditAvatar allows admins and the owner of the profile.
func canEditAvatar(p Principal, role Role, id string) bool {
	return IsAdmin(p) || (p.Role() == role && p.PrincipalID() == id)
}

// replaceAvatar stores the new image through save and swaps it in with set.
// The new file is removed if set fails; the old one once it succeeds.
func (svc *service) replaceAvatar(role Role, old null.String, filename string, data []byte, set func(img string) error) (string, error) {
	if svc.deps.Files == nil {
		return "", errors.New("file storage is not configured")
	}
	img, err := svc.deps.Files.SaveImage(string(role), filename, data)
	if err != nil {
		return "", err
	}
	if err = set(img); err != nil {
		svc.deps.Files.Remove(img)
		return "", err
	}
	if old.Valid && old.String != "" && old.String != img {
		svc.deps.Files.Remove(old.String)
	}
	return img, nil
}

func (svc *service) SetTeacherAvatar(ctx context.Context, p Principal, id, filename string, data []byte) (Teacher, error) {
	if !canEditAvatar(p, RoleTeacher, id) {
		return Teacher{}, core.NewPermissionError("")
	}
	t, err := svc.repo.GetTeacher(ctx, AdminScope{}, id)
	if err != nil {
		return Teacher{}, err
	}
	img, err := svc.replaceAvatar(RoleTeacher, t.Img, filename, data, func(img string) error {
		return svc.repo.SetTeacherImg(ctx, id, img)
	})
	if err != nil {
		return Teacher{}, err
	}
	t.Img = null.StringFrom(img)
	return t, nil
}
