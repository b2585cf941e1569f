package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/edupoint/school-app/models"
	"github.com/edupoint/school-app/rbac"
	"github.com/edupoint/school-app/utils"
)

type ParentController struct {
	DB *gorm.DB
}

func NewParentController(db *gorm.DB) *ParentController {
	return &ParentController{DB: db}
}

// LinkStudent associates a student with a parent profile. Admins may link
// anyone; a parent may only link students to their own profile.
func (pc *ParentController) LinkStudent(c *gin.Context) {
	principal, ok := rbac.FromContext(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("unauthorized"))
		return
	}

	parentID, err := strconv.Atoi(c.Param("parent_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid parent id"))
		return
	}

	if dec := rbac.Authorize(principal, []models.Role{models.RoleAdmin}, rbac.IsSelf(uint(parentID))); !dec.Allowed {
		utils.RespondError(c, http.StatusForbidden, dec.Reason)
		return
	}

	var body struct {
		StudentID uint `json:"student_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var parent models.User
	if err := pc.DB.First(&parent, parentID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	if parent.Role != models.RoleParent {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("user %d is not a parent", parent.ID))
		return
	}

	var student models.User
	if err := pc.DB.First(&student, body.StudentID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	if student.Role != models.RoleStudent {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("user %d is not a student", student.ID))
		return
	}
	if student.ID == parent.ID {
		utils.RespondError(c, http.StatusConflict, errors.New("cannot link a user to themselves"))
		return
	}

	count := pc.DB.Model(&parent).Where("id = ?", student.ID).Association("Children").Count()
	if count > 0 {
		utils.RespondError(c, http.StatusConflict,
			fmt.Errorf("student %d is already linked to parent %d", student.ID, parent.ID))
		return
	}

	if err := pc.DB.Model(&parent).Association("Children").Append(&student); err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("Student %d linked to parent %d by user %d", student.ID, parent.ID, principal.ID)

	utils.RespondJSON(c, http.StatusCreated, "Student linked to parent", gin.H{
		"parent_id":  parent.ID,
		"student_id": student.ID,
	})
}

// GetLinkedStudents lists the students linked to a parent. Admins and
// teachers may view any parent; a parent only their own profile.
func (pc *ParentController) GetLinkedStudents(c *gin.Context) {
	principal, ok := rbac.FromContext(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("unauthorized"))
		return
	}

	parentID, err := strconv.Atoi(c.Param("parent_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid parent id"))
		return
	}

	required := []models.Role{models.RoleAdmin, models.RoleTeacher}
	if dec := rbac.Authorize(principal, required, rbac.IsSelf(uint(parentID))); !dec.Allowed {
		utils.RespondError(c, http.StatusForbidden, dec.Reason)
		return
	}

	var parent models.User
	if err := pc.DB.Preload("Children").First(&parent, parentID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	if parent.Role != models.RoleParent {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("user %d is not a parent", parent.ID))
		return
	}

	students := make([]gin.H, 0, len(parent.Children))
	for _, s := range parent.Children {
		students = append(students, gin.H{
			"id":    s.ID,
			"name":  s.Name,
			"email": s.Email,
		})
	}

	utils.RespondJSON(c, http.StatusOK, "Linked students", gin.H{"students": students})
}

// UnlinkStudent removes a parent-student association. Same ownership rule
// as linking.
func (pc *ParentController) UnlinkStudent(c *gin.Context) {
	principal, ok := rbac.FromContext(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("unauthorized"))
		return
	}

	parentID, err := strconv.Atoi(c.Param("parent_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid parent id"))
		return
	}
	studentID, err := strconv.Atoi(c.Param("student_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid student id"))
		return
	}

	if dec := rbac.Authorize(principal, []models.Role{models.RoleAdmin}, rbac.IsSelf(uint(parentID))); !dec.Allowed {
		utils.RespondError(c, http.StatusForbidden, dec.Reason)
		return
	}

	var parent models.User
	if err := pc.DB.First(&parent, parentID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	var student models.User
	if err := pc.DB.First(&student, studentID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	count := pc.DB.Model(&parent).Where("id = ?", student.ID).Association("Children").Count()
	if count == 0 {
		utils.RespondError(c, http.StatusNotFound,
			fmt.Errorf("student %d is not linked to parent %d", student.ID, parent.ID))
		return
	}

	if err := pc.DB.Model(&parent).Association("Children").Delete(&student); err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Student unlinked from parent", gin.H{
		"parent_id":  parent.ID,
		"student_id": student.ID,
	})
}
