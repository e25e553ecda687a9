package repository

import (
	"context"

	"gorm.io/gorm/clause"

	"github.com/okian/pragati/internal/domain/model"
	"github.com/okian/pragati/internal/domain/types"
)

// UpsertLesson creates the lesson or replaces its title, type and active flag.
func (s *Store) UpsertLesson(ctx context.Context, l *model.Lesson) error {
	return s.conn(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"title", "lesson_type", "active", "updated_at"}),
		}).
		Create(l).Error
}

// GetLesson returns ErrNotFound for an unknown id.
func (s *Store) GetLesson(ctx context.Context, id string) (model.Lesson, error) {
	var l model.Lesson
	if err := s.conn(ctx).First(&l, "id = ?", id).Error; err != nil {
		return model.Lesson{}, translate(err)
	}
	return l, nil
}

// ListLessons returns lessons ordered by id, optionally of one type.
func (s *Store) ListLessons(ctx context.Context, lessonType *types.LessonType) ([]model.Lesson, error) {
	q := s.conn(ctx).Order("id")
	if lessonType != nil {
		q = q.Where("lesson_type = ?", *lessonType)
	}
	var out []model.Lesson
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// CountActiveLessons counts the active lessons of one type across the platform.
func (s *Store) CountActiveLessons(ctx context.Context, lessonType types.LessonType) (int, error) {
	var n int64
	err := s.conn(ctx).Model(&model.Lesson{}).
		Where("lesson_type = ? AND active = ?", lessonType, true).
		Count(&n).Error
	return int(n), err
}

// LessonTitles maps the given lesson ids to titles. Unknown ids are absent.
func (s *Store) LessonTitles(ctx context.Context, ids []string) (map[string]string, error) {
	out := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []model.Lesson
	if err := s.conn(ctx).Select("id", "title").Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, l := range rows {
		out[l.ID] = l.Title
	}
	return out, nil
}

// UpsertParent creates the parent or replaces its name.
func (s *Store) UpsertParent(ctx context.Context, p *model.Parent) error {
	return s.conn(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name"}),
		}).
		Create(p).Error
}

// GetParent returns ErrNotFound for an unknown id.
func (s *Store) GetParent(ctx context.Context, id string) (model.Parent, error) {
	var p model.Parent
	if err := s.conn(ctx).First(&p, "id = ?", id).Error; err != nil {
		return model.Parent{}, translate(err)
	}
	return p, nil
}

// UpsertStudent creates the student or replaces its name and parent link.
func (s *Store) UpsertStudent(ctx context.Context, st *model.Student) error {
	return s.conn(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "parent_id", "updated_at"}),
		}).
		Create(st).Error
}

// EnsureStudent registers a placeholder student named after its id unless one
// already exists.
func (s *Store) EnsureStudent(ctx context.Context, id string) error {
	st := model.Student{ID: id, Name: id}
	return s.conn(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(&st).Error
}

// GetStudent returns ErrNotFound for an unknown id.
func (s *Store) GetStudent(ctx context.Context, id string) (model.Student, error) {
	var st model.Student
	if err := s.conn(ctx).First(&st, "id = ?", id).Error; err != nil {
		return model.Student{}, translate(err)
	}
	return st, nil
}

// ListStudentIDs returns every student id in ascending order.
func (s *Store) ListStudentIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := s.conn(ctx).Model(&model.Student{}).Order("id").Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// StudentsWithParent returns the students linked to a parent, ordered by id.
func (s *Store) StudentsWithParent(ctx context.Context) ([]model.Student, error) {
	var out []model.Student
	if err := s.conn(ctx).Where("parent_id IS NOT NULL").Order("id").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
