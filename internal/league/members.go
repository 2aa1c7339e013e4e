package league

import (
	"context"
	"fmt"
)

// UserDirectory resolve username -> usuário do provedor
type UserDirectory interface {
	LookupUser(ctx context.Context, username string) (User, error)
}

// Membership só deixa abrir carteira quem está na lista de usuários da liga
type Membership struct {
	Provider  Provider
	Directory UserDirectory
	LeagueID  string
}

// Resolve devolve o membro da liga. Sem userID, o username é resolvido pelo Directory.
func (m Membership) Resolve(ctx context.Context, userID, username string) (User, error) {
	if userID == "" {
		if username == "" || m.Directory == nil {
			return User{}, ErrUnknownUser
		}
		u, err := m.Directory.LookupUser(ctx, username)
		if err != nil {
			return User{}, err
		}
		userID = u.UserID
	}

	users, err := m.Provider.Users(ctx, m.LeagueID)
	if err != nil {
		return User{}, fmt.Errorf("league users: %w", err)
	}
	for _, u := range users {
		if u.UserID == userID {
			return u, nil
		}
	}
	return User{}, ErrNotMember
}
