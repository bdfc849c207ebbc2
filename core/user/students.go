package user

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/Jaimin17/Zenith-School-Backend/core"
)

func (svc *service) ListStudents(ctx context.Context, p Principal, filter StudentFilter, ordering []core.DBOrdering) ([]Student, core.Pagination, error) {
	filter.Clean()
	students, total, err := svc.repo.QueryStudents(ctx, p.Scope(), filter, ordering, svc.perPage())
	if err != nil {
		return nil, core.Pagination{}, err
	}
	return students, core.NewPagination(total, filter.Page, svc.perPage()), nil
}

func (svc *service) CountStudents(ctx context.Context) (int64, error) {
	return svc.repo.CountStudents(ctx)
}

func (svc *service) CountStudentsBySex(ctx context.Context) ([]SexCount, error) {
	return svc.repo.CountStudentsBySex(ctx)
}

func (svc *service) GetStudent(ctx context.Context, p Principal, id string) (Student, error) {
	return svc.repo.GetStudent(ctx, p.Scope(), id)
}

func (svc *service) CreateStudent(ctx context.Context, ns NewStudent) (Student, error) {
	hash, err := HashPassword(ns.Password)
	if err != nil {
		return Student{}, errors.Wrap(err, "hashing password")
	}
	s := Student{
		Person: Person{
			Username:  ns.Username,
			FirstName: ns.FirstName,
			LastName:  ns.LastName,
			Email:     ns.Email,
			Address:   ns.Address,
			Password:  hash,
			CreatedAt: time.Now().UTC(),
		},
		Phone:     null.NewString(ns.Phone, ns.Phone != ""),
		BloodType: ns.BloodType,
		Sex:       ns.Sex,
		ParentID:  null.StringFrom(ns.ParentID),
		ClassID:   null.StringFrom(ns.ClassID),
		GradeID:   null.StringFrom(ns.GradeID),
	}

	err = svc.tx.Transact(ctx, func(tx core.DBExecutor) error {
		if err := svc.repo.CheckUniqueness(ctx, RoleStudent, s.Username, s.Email, ns.Phone, "", tx); err != nil {
			return err
		}
		if err := svc.repo.CheckStudentRefs(ctx, ns.ParentID, ns.ClassID, ns.GradeID, tx); err != nil {
			return err
		}
		if err := svc.checkSeat(ctx, ns.ClassID, "", tx); err != nil {
			return err
		}
		var err error
		s, err = svc.repo.CreateStudent(ctx, s, tx)
		return err
	})
	return s, err
}

func (svc *service) UpdateStudent(ctx context.Context, id string, us UpdateStudent) (Student, error) {
	var s Student
	err := svc.tx.Transact(ctx, func(tx core.DBExecutor) error {
		var err error
		if s, err = svc.repo.GetStudent(ctx, AdminScope{}, id, tx); err != nil {
			return err
		}
		if err = svc.repo.CheckUniqueness(ctx, RoleStudent, us.Username, us.Email, us.Phone, id, tx); err != nil {
			return err
		}
		if err = svc.repo.CheckStudentRefs(ctx, us.ParentID, us.ClassID, us.GradeID, tx); err != nil {
			return err
		}
		if us.ClassID != s.ClassID.String {
			if err = svc.checkSeat(ctx, us.ClassID, id, tx); err != nil {
				return err
			}
		}

		s.Username = us.Username
		s.FirstName = us.FirstName
		s.LastName = us.LastName
		s.Email = us.Email
		s.Address = us.Address
		s.Phone = null.NewString(us.Phone, us.Phone != "")
		s.BloodType = us.BloodType
		s.Sex = us.Sex
		s.ParentID = null.StringFrom(us.ParentID)
		s.ClassID = null.StringFrom(us.ClassID)
		s.GradeID = null.StringFrom(us.GradeID)
		if us.Password != "" {
			if s.Password, err = HashPassword(us.Password); err != nil {
				return errors.Wrap(err, "hashing password")
			}
		}
		s, err = svc.repo.UpdateStudent(ctx, s, tx)
		return err
	})
	return s, err
}

// checkSeat rejects enrolling studentID into a class that is already full.
func (svc *service) checkSeat(ctx context.Context, classID, studentID string, tx core.DBExecutor) error {
	if classID == "" {
		return nil
	}
	capacity, enrolled, err := svc.repo.ClassSeats(ctx, classID, studentID, tx)
	if err != nil {
		return err
	}
	if enrolled >= int64(capacity) {
		return ErrClassFull
	}
	return nil
}

// DeleteStudent soft-deletes a student after unlinking their parent, class and grade
// and soft-deleting their attendance and results.
func (svc *service) DeleteStudent(ctx context.Context, id string) (StudentDeleteResult, error) {
	var res StudentDeleteResult
	err := svc.tx.Transact(ctx, func(tx core.DBExecutor) error {
		if _, err := svc.repo.GetStudent(ctx, AdminScope{}, id, tx); err != nil {
			return err
		}
		var err error
		res, err = svc.repo.DeleteStudent(ctx, id, tx)
		return err
	})
	return res, err
}

func (svc *service) SetStudentAvatar(ctx context.Context, p Principal, id, filename string, data []byte) (Student, error) {
	if !canEditAvatar(p, RoleStudent, id) {
		return Student{}, core.NewPermissionError("")
	}
	s, err := svc.repo.GetStudent(ctx, AdminScope{}, id)
	if err != nil {
		return Student{}, err
	}
	img, err := svc.replaceAvatar(RoleStudent, s.Img, filename, data, func(img string) error {
		return svc.repo.SetStudentImg(ctx, id, img)
	})
	if err != nil {
		return Student{}, err
	}
	s.Img = null.StringFrom(img)
	return s, nil
}
