package main

import (
	"context"

	"github.com/volatiletech/null/v8"

	"github.com/fnedigital/genera/core"
	"github.com/fnedigital/genera/core/role"
)

func (cli *commandLine) assignRole(email, roleType, schoolID, generationID, communityID string) error {
	usr, err := cli.usrRepo.GetUserByEmail(core.CleanString(email, true /* lower */))
	if err != nil {
		return err
	}

	_, err = cli.roleRepo.CreateAssignment(context.Background(), role.Assignment{
		UserID:       usr.ID,
		RoleType:     roleType,
		SchoolID:     null.NewString(schoolID, schoolID != ""),
		GenerationID: null.NewString(generationID, generationID != ""),
		CommunityID:  null.NewString(communityID, communityID != ""),
		IsActive:     true,
	})
	return err
}
