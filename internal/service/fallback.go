package service

import (
	"strings"

	"github.com/bitwisdom/site-assistant/internal/model"
)

// Fallback rule names, reported in metrics.
const (
	RuleFAQ  = "faq"
	RuleMenu = "menu"
)

type fallbackCategory struct {
	name     string
	triggers []string
	reply    string
}

// fallbackCategories is checked in order; the first match wins.
var fallbackCategories = []fallbackCategory{
	{
		name:     "greeting",
		triggers: []string{"hi", "hello", "hey", "good morning", "good afternoon"},
		reply:    "Hello! 👋 Welcome to BitWisdom. I'm here to help you with information about our cryptocurrency and blockchain services. What can I help you with today?",
	},
	{
		name:     "services",
		triggers: []string{"service", "offer", "provide", "do you"},
		reply:    "BitWisdom offers several key services:\n\n• Crypto Node Hosting (Laptop & Mobile)\n• Cryptocurrency Payment Integration\n• Blockchain Consulting\n• Custom Blockchain Solutions\n\nWould you like to know more about any of these?",
	},
	{
		name:     "pricing",
		triggers: []string{"price", "cost", "fee", "how much", "payment"},
		reply:    "Our pricing varies based on your specific needs. I'd recommend:\n\n1. Fill out our qualifying form to get a personalized quote\n2. Contact our sales team directly\n3. Visit our Products page for more details\n\nWould you like me to help you with anything else?",
	},
	{
		name:     "start",
		triggers: []string{"start", "begin", "get started", "sign up", "register"},
		reply:    "Getting started with BitWisdom is easy! Here's what to do:\n\n1. Fill out our qualifying form on the website\n2. Our team will review your application\n3. We'll contact you to discuss your needs\n4. Choose the service that fits your requirements\n\nSetup typically takes 24-48 hours for node hosting and 3-5 days for payment integration.",
	},
	{
		name:     "contact",
		triggers: []string{"contact", "email", "phone", "reach", "support"},
		reply:    "You can reach our support team:\n\n📧 Email: support@bitwisdom.com\n📝 Contact Form: Available on our website\n⏰ Hours: Mon-Fri, 9 AM - 6 PM EST\n\nWe typically respond within 24 hours. How else can I help you?",
	},
	{
		name:     "node",
		triggers: []string{"node", "mining", "validator", "hosting"},
		reply:    "Crypto nodes are computers that participate in blockchain networks by validating and relaying transactions. BitWisdom offers:\n\n• Laptop Node Hosting\n• Mobile Node Hosting\n• 24/7 Monitoring\n• Secure Infrastructure\n\nRunning a node helps secure the network and can earn you rewards. Would you like more details?",
	},
	{
		name:     "crypto",
		triggers: []string{"crypto", "bitcoin", "ethereum", "blockchain"},
		reply:    "We support major cryptocurrencies including:\n\n• Bitcoin (BTC)\n• Ethereum (ETH)\n• Various altcoins\n\nThe specific cryptocurrencies available depend on the service you choose. What would you like to know about crypto?",
	},
	{
		name:     "integration",
		triggers: []string{"integrate", "plugin", "shopify", "woocommerce"},
		reply:    "Yes! We integrate with major e-commerce platforms:\n\n✅ Shopify\n✅ WooCommerce\n✅ Magento\n✅ Drupal\n✅ And more!\n\nOur team assists with the entire integration process. Would you like to discuss integration for your platform?",
	},
}

// MenuMessage is the generic capability menu.
const MenuMessage = "I'd be happy to help! Here are some things I can assist you with:\n\n• Our services and offerings\n• Pricing information\n• Getting started\n• Technical questions about crypto nodes\n• Integration with e-commerce platforms\n• Contact information\n\nYou can also browse our FAQs below for quick answers. What would you like to know?"

// FallbackCategories returns the category names in precedence order.
func FallbackCategories() []string {
	names := make([]string, len(fallbackCategories))
	for i, c := range fallbackCategories {
		names[i] = c.name
	}
	return names
}

// Fallback produces a deterministic reply without the completion provider.
// It returns the reply and the name of the rule that produced it.
func Fallback(message string, kc *KnowledgeContext) (*model.ChatReply, string) {
	if kc != nil && kc.HasFAQ() && kc.FAQs[0].Answer != "" {
		return &model.ChatReply{
			Message: kc.FAQs[0].Answer,
			Sources: model.Sources{FAQs: true, Website: false},
		}, RuleFAQ
	}

	lower := strings.ToLower(message)
	for _, c := range fallbackCategories {
		for _, trigger := range c.triggers {
			if strings.Contains(lower, trigger) {
				return &model.ChatReply{Message: c.reply}, c.name
			}
		}
	}

	return &model.ChatReply{Message: MenuMessage}, RuleMenu
}
