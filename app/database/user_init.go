package database

import (
	"fmt"
	"kling-studio/app/config"
	"kling-studio/app/logger"
	"kling-studio/app/model"
	"kling-studio/app/utils"

	"gorm.io/gorm"
)

// InitAdminUser 按配置文件同步管理员账户
func InitAdminUser(db *gorm.DB, cfg *config.Config, log *logger.Logger) error {
	if cfg.Server.Username == "" || cfg.Server.Password == "" {
		return fmt.Errorf("管理员账户配置不能为空，请设置 server.username 和 server.password")
	}

	var existingAdmin model.User
	result := db.Where("is_admin = ?", true).First(&existingAdmin)

	if result.Error == nil {
		needUpdate := false

		if existingAdmin.Username != cfg.Server.Username {
			var conflictUser model.User
			conflictResult := db.Where("username = ? AND id != ?", cfg.Server.Username, existingAdmin.ID).First(&conflictUser)
			if conflictResult.Error == nil {
				return fmt.Errorf("用户名 '%s' 已被其他用户使用，无法更新管理员用户名", cfg.Server.Username)
			}

			log.Infof("管理员用户名从 '%s' 更新为 '%s'", existingAdmin.Username, cfg.Server.Username)
			existingAdmin.Username = cfg.Server.Username
			needUpdate = true
		}

		if !utils.VerifyPassword(cfg.Server.Password, existingAdmin.Password) {
			expectedHash, err := utils.HashPassword(cfg.Server.Password)
			if err != nil {
				return fmt.Errorf("哈希密码失败: %w", err)
			}
			existingAdmin.Password = expectedHash
			needUpdate = true
			log.Infof("管理员 '%s' 密码已更新", cfg.Server.Username)
		}

		if needUpdate {
			if err := db.Save(&existingAdmin).Error; err != nil {
				return fmt.Errorf("更新管理员账户失败: %w", err)
			}
		}
		return nil
	}

	if result.Error != gorm.ErrRecordNotFound {
		return fmt.Errorf("查询管理员账户失败: %w", result.Error)
	}

	hashedPassword, err := utils.HashPassword(cfg.Server.Password)
	if err != nil {
		return fmt.Errorf("哈希密码失败: %w", err)
	}

	adminUser := model.User{
		Username: cfg.Server.Username,
		Password: hashedPassword,
		IsActive: true,
		IsAdmin:  true,
	}

	if err := db.Create(&adminUser).Error; err != nil {
		return fmt.Errorf("创建管理员账户失败: %v", err)
	}

	log.Infof("管理员账户 '%s' 创建成功", cfg.Server.Username)
	return nil
}
