package database_test

import (
	"testing"

	"github.com/VisionVII/smeducacional-sub001/database"
	"github.com/VisionVII/smeducacional-sub001/database/dbtest"
	"github.com/VisionVII/smeducacional-sub001/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedAllIsIdempotent(t *testing.T) {
	t.Setenv("ADMIN_EMAIL", "")
	db := dbtest.Open(t)
	seeder := database.NewSeeder(db)

	first, err := seeder.SeedAll()
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, first.Admin.Role)
	assert.Equal(t, model.RoleTeacher, first.Teacher.Role)
	assert.Equal(t, model.RoleStudent, first.Student.Role)
	require.NotNil(t, first.Course.InstructorID)
	assert.Equal(t, first.Teacher.ID, *first.Course.InstructorID)

	second, err := seeder.SeedAll()
	require.NoError(t, err)
	assert.Equal(t, first.Student.ID, second.Student.ID)
	assert.Equal(t, first.Course.ID, second.Course.ID)

	var users, courses int64
	require.NoError(t, db.Model(&model.User{}).Count(&users).Error)
	require.NoError(t, db.Model(&model.Course{}).Count(&courses).Error)
	assert.Equal(t, int64(3), users)
	assert.Equal(t, int64(1), courses)
}
