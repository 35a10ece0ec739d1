package likeservice

import (
	"github.com/sushihentaime/codestar/internal/common"
)

type LikeModel struct {
	db common.DBTX
}

type LikeService struct {
	m  *LikeModel
	db common.DBTX
}
