package platform

import "fmt"

const (
	loginPath     = "/login"
	inventoryPath = "/drops/inventory"
)

// Xpath locators for the two page types. These are the contract with the
// remote site; when the site ships a redesign, this file is what changes.
const (
	locLoginUsername = "//input[@id='login-username']"
	locLoginPassword = "//input[@id='password-input']"
	locServerAlert   = "//div[contains(@class, 'server-message-alert')]//strong"
	locUserMenu      = "//button[@data-a-target='user-menu-toggle']"

	// Login challenges. Any of these blocks completion until a human
	// clears it.
	locAuthCodePrompt = "//label[contains(text(), 'Token')]"
	locCaptchaFrame   = "//*[@id='FunCaptcha']"
	locDeviceVerify   = "//h4[contains(text(), 'Verify')]"

	// Stream page.
	locLiveIndicator  = "//div[@class='channel-info-content']//p[contains(text(), 'LIVE')]"
	locDropsEnabled   = "//div[@class='channel-info-content']//a[@data-a-target='Drops Enabled']"
	locFirstDirCard   = "//div[@data-target='directory-first-item']//a[@data-a-target='preview-card-title-link']"
	locMatureAccept   = "//button[@data-a-target='player-overlay-mature-accept']"
	locPlayerSettings = "//button[@data-a-target='player-settings-button']"
	locQualityMenu    = "//button[@data-a-target='player-settings-menu-item-quality']"
	locChatCollapse   = "//div[@data-a-target='right-column-chat-bar']//button[@data-a-target='right-column__toggle-collapse-btn']"
	locBonusClaim     = "//div[@class='claimable-bonus__icon tw-flex']"
	locPlayerError    = "//p[contains(text(), 'Error')]"

	// Inventory page.
	locClaimButton = "//div[@data-test-selector='DropsCampaignInProgressRewards-container']//button[@data-test-selector='DropsCampaignInProgressRewardPresentation-claim-button']"
	locDropImage   = "//div[@data-test-selector='DropsCampaignInProgressRewards-container']//img[@class='inventory-drop-image inventory-opacity-2 tw-image']"
	locClaimedHead = "//h4[contains(text(), 'Claimed')]"
	locInProgress  = "//p[contains(text(), 'In Progress')]"
)

// Lowest-first quality options tried when dropping stream resource usage.
var qualityFallbacks = []string{"160p", "360p", "480p", "720p", "Auto"}

func locQualityOption(quality string) string {
	return fmt.Sprintf("//div[@data-a-target='player-settings-submenu-quality-option']//div[contains(text(), '%s')]", quality)
}
